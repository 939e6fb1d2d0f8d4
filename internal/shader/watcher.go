package shader

import (
	"path/filepath"
	"strings"

	"Shadow3D/internal/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports shader source edits in a directory. It only forwards
// program names; the render goroutine drains Changed between frames and does
// the recompile itself, since GL calls must stay on that thread.
type Watcher struct {
	fs      *fsnotify.Watcher
	changed chan string
	done    chan struct{}
}

func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		fs:      fw,
		changed: make(chan string, 16),
		done:    make(chan struct{}),
	}
	go w.loop()
	logger.Log.Info("Watching shader sources", zap.String("dir", dir))
	return w, nil
}

// Changed yields the program name (file name without stage extension) of
// every edited source. Events are dropped when the buffer is full; the next
// edit of the same file is reported again.
func (w *Watcher) Changed() <-chan string {
	return w.changed
}

func (w *Watcher) loop() {
	defer close(w.changed)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name, ok := ProgramName(ev.Name)
			if !ok {
				continue
			}
			select {
			case w.changed <- name:
			default:
				logger.Log.Debug("Dropping shader change event", zap.String("file", ev.Name))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Log.Warn("Shader watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

// ProgramName maps a shader source path to its program name. Files without a
// stage extension are not shader sources.
func ProgramName(path string) (string, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	switch ext {
	case VertexExt, FragmentExt, GeometryExt:
		return strings.TrimSuffix(base, ext), true
	}
	return "", false
}
