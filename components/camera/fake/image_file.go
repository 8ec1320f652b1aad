package fake

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/motiondetect/components/camera"
	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/rimage"
	"go.viam.com/motiondetect/utils"
)

const fileModel = "image_file"

func init() {
	camera.RegisterModel(fileModel, camera.Registration[*fileSourceConfig]{
		Constructor: func(ctx context.Context, conf *fileSourceConfig, logger logging.Logger) (camera.VideoSource, error) {
			return newFileSource(conf, logger)
		},
	})
}

// fileSourceConfig is the attribute struct for fileSource.
type fileSourceConfig struct {
	Directory string `json:"directory"`
	// Pattern is a filepath.Match pattern applied to file names. Empty matches every image.
	Pattern string `json:"pattern,omitempty"`
	// Loop restarts from the first file once every file was read.
	Loop bool `json:"loop,omitempty"`
	// Watch keeps the stream open after the existing files and emits images as they appear.
	Watch bool    `json:"watch,omitempty"`
	FPS   float64 `json:"fps,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *fileSourceConfig) Validate() error {
	if c.Directory == "" {
		return errors.New("image_file camera needs a directory")
	}
	if c.Loop && c.Watch {
		return errors.New("image_file camera cannot both loop and watch")
	}
	if c.Pattern != "" {
		if _, err := filepath.Match(c.Pattern, ""); err != nil {
			return errors.Wrapf(err, "bad pattern %q", c.Pattern)
		}
	}
	if c.FPS < 0 {
		return errors.Errorf("fps must not be negative, got %v", c.FPS)
	}
	return nil
}

// fileSource replays the images in a directory in file name order.
type fileSource struct {
	mu      sync.Mutex
	conf    fileSourceConfig
	files   []string
	next    int
	last    time.Time
	logger  logging.Logger
	watcher *fsnotify.Watcher
	workers utils.StoppableWorkers
	// arrived holds files announced by the watcher that have not been read yet.
	arrived chan string
	queued  map[string]bool
	read    map[string]bool
}

func newFileSource(conf *fileSourceConfig, logger logging.Logger) (*fileSource, error) {
	fs := &fileSource{
		conf:   *conf,
		logger: logger,
		queued: map[string]bool{},
		read:   map[string]bool{},
	}
	if conf.Watch {
		// start watching before listing so no file can slip between the two
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		if err := watcher.Add(conf.Directory); err != nil {
			goutils.UncheckedError(watcher.Close())
			return nil, errors.Wrapf(err, "cannot watch %q", conf.Directory)
		}
		fs.watcher = watcher
		fs.arrived = make(chan string, 64)
	}

	files, err := fs.listFiles()
	if err != nil {
		if fs.watcher != nil {
			goutils.UncheckedError(fs.watcher.Close())
		}
		return nil, err
	}
	if len(files) == 0 && !conf.Watch {
		return nil, errors.Errorf("no images found in %q", conf.Directory)
	}
	fs.files = files
	for _, f := range files {
		fs.queued[f] = true
	}
	if fs.watcher != nil {
		fs.workers = utils.NewStoppableWorkers(fs.watch)
	}
	logger.Debugw("image_file camera ready", "directory", conf.Directory, "files", len(files), "watch", conf.Watch)
	return fs, nil
}

func (fs *fileSource) matches(path string) bool {
	if _, ok := utils.MimeTypeFromPath(path); !ok {
		return false
	}
	if fs.conf.Pattern == "" {
		return true
	}
	ok, err := filepath.Match(fs.conf.Pattern, filepath.Base(path))
	return err == nil && ok
}

func (fs *fileSource) listFiles() ([]string, error) {
	entries, err := os.ReadDir(fs.conf.Directory)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(fs.conf.Directory, entry.Name())
		if entry.Type().IsRegular() && fs.matches(path) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// watch forwards created and written image files to the arrived channel.
func (fs *fileSource) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return
			}
			fs.logger.Warnw("directory watch error", "error", err)
		case event, ok := <-fs.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !fs.matches(event.Name) {
				continue
			}
			fs.mu.Lock()
			skip := fs.queued[event.Name] || fs.read[event.Name]
			if !skip {
				fs.queued[event.Name] = true
			}
			fs.mu.Unlock()
			if skip {
				continue
			}
			select {
			case fs.arrived <- event.Name:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Read returns the next image. Once the listed files are exhausted it loops, waits for new files,
// or returns io.EOF depending on the config.
func (fs *fileSource) Read(ctx context.Context) (image.Image, func(), error) {
	if err := fs.throttle(ctx); err != nil {
		return nil, nil, err
	}
	path, err := fs.nextPath(ctx)
	if err != nil {
		return nil, nil, err
	}
	img, err := rimage.NewImageFromFile(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err != nil {
		// a watched file may still be being written; a later write event queues it again
		delete(fs.queued, path)
		return nil, nil, err
	}
	fs.read[path] = true
	return img, func() {}, nil
}

func (fs *fileSource) nextPath(ctx context.Context) (string, error) {
	fs.mu.Lock()
	if fs.next < len(fs.files) {
		path := fs.files[fs.next]
		fs.next++
		fs.mu.Unlock()
		return path, nil
	}
	if fs.conf.Loop && len(fs.files) > 0 {
		fs.next = 1
		path := fs.files[0]
		fs.mu.Unlock()
		return path, nil
	}
	fs.mu.Unlock()

	if fs.watcher == nil {
		return "", io.EOF
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-fs.workers.Context().Done():
		return "", io.EOF
	case path := <-fs.arrived:
		return path, nil
	}
}

func (fs *fileSource) throttle(ctx context.Context) error {
	if fs.conf.FPS <= 0 {
		return nil
	}
	fs.mu.Lock()
	last := fs.last
	fs.mu.Unlock()
	if !last.IsZero() {
		wait := time.Duration(float64(time.Second)/fs.conf.FPS) - time.Since(last)
		if wait > 0 && !goutils.SelectContextOrWait(ctx, wait) {
			return ctx.Err()
		}
	}
	fs.mu.Lock()
	fs.last = time.Now()
	fs.mu.Unlock()
	return nil
}

// Close stops watching the directory.
func (fs *fileSource) Close(ctx context.Context) error {
	if fs.watcher == nil {
		return nil
	}
	fs.workers.Stop()
	return fs.watcher.Close()
}
