package assets

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/tessera/engine/assets/loaders"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

const reloadQueueSize = 32

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// ChangeFunc is called on the reload worker after a known asset was created or written. Changes
// are delivered in the order they were seen.
type ChangeFunc func(AssetInfo) error

type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	shaderDir string
	compiler  loaders.Compiler

	mutex    sync.RWMutex
	handlers []ChangeFunc
	reloads  *core.JobSystem

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
}

// NewAssetManager creates a manager that compiles GLSL with compiler. A nil compiler leaves only
// precompiled SPIR-V usable.
func NewAssetManager(compiler loaders.Compiler) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating file watcher")
	}
	reloads, err := core.NewJobSystem(1, reloadQueueSize)
	if err != nil {
		fsWatch.Close()
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		compiler: compiler,
		reloads:  reloads,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

// Initialize indexes and watches every directory in dirs. Shaders are looked up in shaderDir.
func (am *AssetManager) Initialize(shaderDir string, dirs ...string) error {
	am.shaderDir = filepath.Clean(shaderDir)

	am.registerLoader(metadata.ResourceTypeBinary, &loaders.BinaryLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(metadata.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{})
	am.registerLoader(metadata.ResourceTypeSystemFont, &loaders.SystemFontLoader{})
	if am.compiler != nil {
		am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{Compiler: am.compiler})
	}

	for _, dir := range append([]string{am.shaderDir}, dirs...) {
		if err := am.addRecursive(dir); err != nil {
			return err
		}
	}

	am.wg.Add(1)
	go am.start()
	return nil
}

// OnChange registers fn for hot reload notifications.
func (am *AssetManager) OnChange(fn ChangeFunc) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.handlers = append(am.handlers, fn)
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	return errors.CombineErrors(am.fsnotify.Close(), am.reloads.Shutdown())
}

// AddRecursive starts watching the named directory and all sub-directories. A missing directory is
// skipped.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	if _, err := os.Stat(name); os.IsNotExist(err) {
		core.LogWarn("Asset directory %s does not exist, not watching it.", name)
		return nil
	}
	return am.watchRecursive(name)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Lookup reports what the index knows about path.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	asset, ok := am.assets[filepath.Clean(path)]
	return asset, ok
}

// LoadAsset loads an indexed file with the loader registered for its type.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*metadata.Resource, error) {
	path = filepath.Clean(path)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, errors.Mark(errors.Newf("asset not indexed: %s", path), core.ErrAssetNotFound)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, errors.Newf("no loader registered for %s asset %s", asset.Type, path)
	}
	return loader.Load(path, asset.Type, params)
}

func (am *AssetManager) UnloadAsset(res *metadata.Resource) error {
	if res == nil {
		return nil
	}
	loader, ok := am.loaders[res.Type]
	if !ok {
		return errors.Newf("no loader registered for %s asset %s", res.Type, res.FullPath)
	}
	return loader.Unload(res)
}

func shaderExtension(stage metadata.ShaderStage) string {
	if stage == metadata.ShaderStageFragment {
		return ".frag"
	}
	return ".vert"
}

// Shader returns SPIR-V for name at stage. GLSL source (<name>.vert, <name>.frag) is compiled when
// a compiler is configured, and a compile error is returned as is. The precompiled <name>.vert.spv
// or <name>.frag.spv is only used when there is no source or no compiler to run.
func (am *AssetManager) Shader(name string, stage metadata.ShaderStage) ([]uint32, error) {
	source := filepath.Join(am.shaderDir, name+shaderExtension(stage))

	var sourceErr error
	if am.compiler != nil {
		res, err := am.LoadAsset(source, stage)
		if err == nil {
			return res.Data.([]uint32), nil
		}
		if !errors.IsAny(err, core.ErrAssetNotFound, core.ErrShaderCompilerMissing) {
			return nil, errors.Wrapf(err, "%s shader %q", stage, name)
		}
		sourceErr = err
		if errors.Is(err, core.ErrShaderCompilerMissing) {
			core.LogWarn("Cannot compile %s, trying precompiled SPIR-V: %s", source, err)
		}
	}

	binary := source + ".spv"
	res, err := am.LoadAsset(binary, name)
	if err != nil {
		return nil, errors.CombineErrors(errors.Wrapf(err, "%s shader %q", stage, name), sourceErr)
	}
	return res.Data.([]uint32), nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("Asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s != nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("Watching %s: %s", e.Name, err)
			}
		}
		return
	}
	// Handle create or modify events
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if info, ok := am.handleFileEvent(e.Name); ok {
			am.notify(info)
		}
	}
	// A removed path cannot be stat'ed, so drop it from both the index and the watch list.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
		_ = am.fsnotify.Remove(e.Name)
	}
}

func (am *AssetManager) notify(info AssetInfo) {
	am.mutex.RLock()
	handlers := append([]ChangeFunc(nil), am.handlers...)
	am.mutex.RUnlock()

	core.LogDebug("Asset changed: %s (%s)", info.Path, info.Type)
	for _, fn := range handlers {
		fn := fn
		err := am.reloads.Submit(core.JobTask{
			Name: "reload " + info.Path,
			Run:  func() error { return fn(info) },
			OnFailure: func(err error) {
				core.LogWarn("Ignoring change to %s: %s", info.Path, err)
			},
		})
		if err != nil {
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list and indexes the files
// found on the way.
func (am *AssetManager) watchRecursive(path string) error {
	err := filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
	return errors.Wrapf(err, "watching %s", path)
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	path = filepath.Clean(path)
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info := AssetInfo{
		Path: path,
		Type: assetType,
	}
	am.assets[path] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".vert", ".frag":
		return metadata.ResourceTypeShader
	case ".spv":
		return metadata.ResourceTypeBinary
	case ".png", ".jpg", ".jpeg", ".bmp":
		return metadata.ResourceTypeImage
	case ".fnt":
		return metadata.ResourceTypeBitmapFont
	case ".ttf", ".otf":
		return metadata.ResourceTypeSystemFont
	case ".toml":
		return metadata.ResourceTypeSettings
	default:
		return metadata.ResourceTypeNone
	}
}
