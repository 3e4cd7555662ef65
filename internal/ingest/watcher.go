package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

type WatchConfig struct {
	Root        string        // inbox; each sub-directory is a person
	InitialScan bool          // emit persons already complete at start
	Debounce    time.Duration // coalesce bursts of writes to one person
	Logger      *slog.Logger
}

// Watch emits a person every time their directory becomes complete, and
// again whenever a document of a complete person changes. Both channels are
// closed when ctx ends.
func Watch(ctx context.Context, cfg WatchConfig) (<-chan entity.PersonDocuments, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, nil, errors.New("watch root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, nil, err
	}
	if err := w.Add(root); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		_ = w.Close()
		return nil, nil, err
	}
	var initial []string
	for _, e := range entries {
		if !e.IsDir() || IsHidden(e.Name()) {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if err := w.Add(dir); err != nil {
			logger.Warn("ingest.watch.add_failed", "path", dir, "error", err)
			continue
		}
		if cfg.InitialScan {
			initial = append(initial, dir)
		}
	}

	evCh := make(chan entity.PersonDocuments, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watch.close_failed", "error", err)
			}
		}()

		emitted := make(map[string]string) // person dir -> document fingerprint
		pending := make(map[string]struct{})
		var timer *time.Timer
		var timerC <-chan time.Time

		flush := func() bool {
			dirs := make([]string, 0, len(pending))
			for d := range pending {
				dirs = append(dirs, d)
				delete(pending, d)
			}
			sort.Strings(dirs)
			for _, dir := range dirs {
				person, _, err := ScanPerson(dir, logger)
				if err != nil || !person.Complete() {
					continue
				}
				fp := fingerprint(person)
				if emitted[dir] == fp {
					continue
				}
				select {
				case evCh <- person:
					emitted[dir] = fp
					logger.Info("ingest.watch.person_ready", "person_id", person.PersonID)
				case <-ctx.Done():
					return false
				}
			}
			return true
		}

		for _, dir := range initial {
			pending[dir] = struct{}{}
		}
		if !flush() {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				dir, isPersonDir := personDirFor(root, e.Name)
				if dir == "" {
					continue
				}
				if isPersonDir && e.Op&fsnotify.Create == fsnotify.Create {
					if err := w.Add(dir); err != nil {
						logger.Warn("ingest.watch.add_failed", "path", dir, "error", err)
					}
				}
				if !isPersonDir && !constants.IsImageExt(filepath.Ext(e.Name)) {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				pending[dir] = struct{}{}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(cfg.Debounce)
				}
				timerC = timer.C
			case <-timerC:
				timerC = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// personDirFor maps an event path to its person directory. isPersonDir is
// true when path is the person directory itself.
func personDirFor(root, path string) (dir string, isPersonDir bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	if IsHidden(parts[0]) {
		return "", false
	}
	switch len(parts) {
	case 1:
		return filepath.Join(root, parts[0]), true
	case 2:
		if IsHidden(parts[1]) {
			return "", false
		}
		return filepath.Join(root, parts[0]), false
	}
	return "", false
}

func fingerprint(p entity.PersonDocuments) string {
	var b strings.Builder
	for _, dt := range constants.DocumentTypes {
		path := p.Documents[dt]
		b.WriteString(path)
		if st, err := os.Stat(path); err == nil {
			b.WriteString("|")
			b.WriteString(st.ModTime().UTC().Format(time.RFC3339Nano))
			b.WriteString("|")
			b.WriteString(strconv.FormatInt(st.Size(), 10))
		}
		b.WriteString(";")
	}
	return b.String()
}
