package assetsync

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/epicweatherbox/weatherbox/gifsafe"
	"github.com/epicweatherbox/weatherbox/store"
	"github.com/epicweatherbox/weatherbox/util"
)

const localCheckInterval = 24 * time.Hour

// LocalManager watches the asset directory for files dropped in by
// hand (scp, USB copy) and keeps the registry in step with them.
type LocalManager struct {
	path string

	db        *store.Database
	validator *gifsafe.Controller

	trackedFiles mapset.Set[string]

	Updated chan bool
}

func NewLocalManager(path string, db *store.Database, validator *gifsafe.Controller) (*LocalManager, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create asset directory, %s, %w", path, err)
	}

	l := &LocalManager{
		path:         path,
		db:           db,
		validator:    validator,
		trackedFiles: mapset.NewSet[string](),
		Updated:      make(chan bool, 1),
	}

	currentFiles, err := l.getCurrentFiles()
	if err != nil {
		slog.Warn("error reading local directory on initialization", "path", l.path, "error", err)
		return nil, err
	}
	l.trackedFiles = currentFiles

	return l, nil
}

func (l *LocalManager) getCurrentFiles() (mapset.Set[string], error) {
	dirs, err := os.ReadDir(l.path)
	if err != nil {
		return nil, err
	}

	currentFiles := mapset.NewSet[string]()
	for _, dir := range dirs {
		name := dir.Name()
		if !util.SupportedAnimExt.Contains(filepath.Ext(name)) {
			continue
		}
		currentFiles.Add(name)
	}

	return currentFiles, nil
}

func (l *LocalManager) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(localCheckInterval)
	defer ticker.Stop()

	// Initial scan
	l.ScanAndRegister()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.ScanAndRegister()
		}
	}
}

// ScanAndRegister validates and registers every asset in the directory
// that the registry does not know yet, and drops registry rows whose
// file disappeared.
func (l *LocalManager) ScanAndRegister() {
	currentFiles, err := l.getCurrentFiles()
	if err != nil {
		slog.Warn("error reading local directory", "path", l.path, "error", err)
		return
	}

	newFiles := currentFiles.Difference(l.trackedFiles).ToSlice()

	changed := false
	for _, name := range currentFiles.ToSlice() {
		assetPath := filepath.Join(l.path, name)
		known, err := l.db.AssetExists(name)
		if err != nil {
			slog.Warn("unable to check asset registration", "name", name, "error", err)
			continue
		}
		if known {
			continue
		}

		if err := l.validator.Validate(assetPath); err != nil {
			slog.Warn("local asset failed validation", "name", name, "error", err)
			currentFiles.Remove(name)
			changed = true
			continue
		}
		if err := registerAsset(l.db, assetPath); err != nil {
			slog.Warn("error while registering local asset", "name", name, "error", err)
			continue
		}
		changed = true
	}

	if err := deregisterMissing(l.db, l.path); err != nil {
		slog.Warn("error reconciling registry with local files", "error", err)
	}

	l.trackedFiles = currentFiles

	if changed || len(newFiles) > 0 {
		select {
		case l.Updated <- true:
		default:
			// Channel is full, skip
		}
	}
}

// registerAsset inserts a validated file into the registry at the end
// of the sync order.
func registerAsset(db *store.Database, assetPath string) error {
	name := filepath.Base(assetPath)

	info, err := os.Stat(assetPath)
	if err != nil {
		return fmt.Errorf("unable to stat asset, %s, %w", name, err)
	}
	width, height, err := gifsafe.Probe(assetPath)
	if err != nil {
		return fmt.Errorf("unable to probe asset, %s, %w", name, err)
	}
	order, err := db.GetMaxOrder()
	if err != nil {
		return err
	}

	return db.InsertAsset(store.Asset{
		AssetName: name,
		SizeBytes: info.Size(),
		Width:     width,
		Height:    height,
		Validated: true,
		Order:     order,
	})
}

// deregisterMissing removes registry rows whose backing file is gone.
func deregisterMissing(db *store.Database, dir string) error {
	assets, err := db.GetAssets()
	if err != nil {
		return err
	}

	for _, asset := range assets {
		if _, err := os.Stat(filepath.Join(dir, asset.AssetName)); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			continue
		}
		slog.Info("deregistering asset not present locally", "name", asset.AssetName)
		if err := db.DeleteAsset(asset.AssetName); err != nil {
			slog.Warn("error while deregistering asset", "name", asset.AssetName, "error", err)
		}
	}
	return nil
}
