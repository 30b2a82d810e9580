package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

func mkSessionDir(outputsRoot string, at time.Time) (string, string, error) {
	sid := "session_" + at.Format("20060102-150405")
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.Wrapf(err, "orchestrator: mkdirall %s failed", dir)
	}
	return sid, dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "orchestrator: creating %s failed", path)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// persist writes rec to <outputsRoot>/session_<ts>/analysis.json.
func persist(outputsRoot string, rec Record, at time.Time) (sessionID, path string, err error) {
	sid, outDir, err := mkSessionDir(outputsRoot, at)
	if err != nil {
		return "", "", err
	}
	path = filepath.Join(outDir, "analysis.json")
	if err = writeJSON(path, rec); err != nil {
		return "", "", err
	}
	return sid, path, nil
}
