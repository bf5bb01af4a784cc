// Package assetsync keeps the animated asset directory in step with the
// curated S3 bucket and the on-disk registry. Every file entering the
// directory passes safety validation before it is registered.
package assetsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/epicweatherbox/weatherbox/gifsafe"
	"github.com/epicweatherbox/weatherbox/store"
	"github.com/epicweatherbox/weatherbox/util"
)

const remoteCheckInterval = time.Duration(1 * time.Hour)

type RemoteManager struct {
	client *s3.Client

	profile  string
	s3Bucket string

	outputPath string

	db        *store.Database
	validator *gifsafe.Controller

	Updated chan bool
}

func NewRemoteManager(db *store.Database, validator *gifsafe.Controller) (*RemoteManager, error) {
	// if empty then defaults to current directory
	rootPath := os.Getenv("WEATHERBOX_ROOT_PATH")
	if rootPath == "" {
		rootPath = "."
	}
	outputPath := filepath.Join(rootPath, "gifs")

	awsProfileName := os.Getenv("WEATHERBOX_AWS_PROFILE")
	if awsProfileName == "" {
		return nil, errors.New("no aws profile provided in environment variable WEATHERBOX_AWS_PROFILE")
	}
	s3Bucket := os.Getenv("WEATHERBOX_S3_BUCKET")
	if s3Bucket == "" {
		return nil, errors.New("no s3 bucket provided in environment variable WEATHERBOX_S3_BUCKET")
	}

	// Load the Shared AWS Configuration (~/.aws/config)
	ctxCfg, cancelCfg := context.WithTimeout(context.Background(), time.Duration(3*time.Second))
	cfg, err := awsconfig.LoadDefaultConfig(
		ctxCfg,
		awsconfig.WithSharedConfigProfile(awsProfileName),
	)
	cancelCfg()
	if err != nil {
		return nil, err
	}

	// Create an Amazon S3 service client
	s3Client := s3.NewFromConfig(cfg)

	return &RemoteManager{
		client:     s3Client,
		profile:    awsProfileName,
		s3Bucket:   s3Bucket,
		outputPath: outputPath,
		db:         db,
		validator:  validator,
		Updated:    make(chan bool, 1),
	}, nil
}

func (r *RemoteManager) GetS3Objects(ctx context.Context) ([]s3types.Object, error) {
	// Get the first page of results for ListObjectsV2 for a bucket
	output, err := r.client.ListObjectsV2(
		ctx,
		&s3.ListObjectsV2Input{
			Bucket: aws.String(r.s3Bucket),
		},
	)
	if err != nil {
		return nil, err
	}

	return output.Contents, nil
}

func (r *RemoteManager) DownloadObject(ctx context.Context, name string) error {
	downloader := manager.NewDownloader(r.client)

	f, err := os.Create(filepath.Join(r.outputPath, name))
	if err != nil {
		return fmt.Errorf("unable to create file for s3 download, %s, %w", name, err)
	}
	defer f.Close()

	if _, err := downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(r.s3Bucket),
		Key:    aws.String(name),
	}); err != nil {
		return fmt.Errorf("unable to download object from s3, %s, %w", name, err)
	}
	return nil
}

func (r *RemoteManager) getLocalFiles() (mapset.Set[string], error) {
	dirs, err := os.ReadDir(r.outputPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", r.outputPath, err)
	}

	localFiles := mapset.NewSet[string]()
	for dir := range slices.Values(dirs) {
		name := dir.Name()
		if !util.SupportedAnimExt.Contains(filepath.Ext(name)) {
			continue
		}
		localFiles.Add(name)
	}

	if localFiles.Cardinality() == 0 {
		slog.Info("no local animated assets found")
	}
	return localFiles, nil
}

func (r *RemoteManager) getRemoteFiles(ctx context.Context) (mapset.Set[string], error) {
	remoteFiles := mapset.NewSet[string]()
	objects, err := r.GetS3Objects(ctx)
	if err != nil {
		return nil, err
	}
	for object := range slices.Values(objects) {
		name := aws.ToString(object.Key)
		if !util.SupportedAnimExt.Contains(filepath.Ext(name)) {
			continue
		}
		remoteFiles.Add(name)
	}

	if remoteFiles.Cardinality() == 0 {
		slog.Info("no remote animated assets found")
	}
	return remoteFiles, nil
}

// filterQuarantined drops names with a quarantine record so a bad file
// is never downloaded twice.
func (r *RemoteManager) filterQuarantined(names mapset.Set[string]) mapset.Set[string] {
	clean := mapset.NewSet[string]()
	for _, name := range names.ToSlice() {
		quarantined, err := r.db.IsQuarantined(name)
		if err != nil {
			slog.Warn("unable to check quarantine", "name", name, "error", err)
			continue
		}
		if quarantined {
			continue
		}
		clean.Add(name)
	}
	return clean
}

func (r *RemoteManager) SyncFolder(ctx context.Context) error {
	localFiles, err := r.getLocalFiles()
	if err != nil {
		return err
	}

	remoteFiles, err := r.getRemoteFiles(ctx)
	if err != nil {
		return err
	}
	remoteFiles = r.filterQuarantined(remoteFiles)

	toDelete := localFiles.Difference(remoteFiles).ToSlice()
	toDownload := remoteFiles.Difference(localFiles).ToSlice()
	if len(toDelete) > 0 {
		slog.Info("deleting local animated assets", "count", len(toDelete), "names", toDelete)
		for name := range slices.Values(toDelete) {
			filePath := filepath.Join(r.outputPath, name)
			if err := os.Remove(filePath); err != nil {
				slog.Warn("unable to remove local file", "error", err)
			}
			if err := r.db.DeleteAsset(name); err != nil {
				slog.Warn("unable to deregister asset", "name", name, "error", err)
			}
		}
	}
	if len(toDownload) > 0 {
		slog.Info("adding animated assets", "count", len(toDownload), "names", toDownload)
		for name := range slices.Values(toDownload) {
			if err := r.DownloadObject(ctx, name); err != nil {
				slog.Warn("error while downloading s3 object", "name", name, "error", err)
				continue
			}

			// Validation gates registration; a rejected download is
			// already deleted and quarantined by the controller.
			assetPath := filepath.Join(r.outputPath, name)
			if err := r.validator.Validate(assetPath); err != nil {
				slog.Warn("downloaded asset failed validation", "name", name, "error", err)
				continue
			}
			if err := registerAsset(r.db, assetPath); err != nil {
				slog.Warn("error while registering asset", "name", name, "error", err)
			}
		}
	}

	// Registry rows without a backing file are dropped after the sync.
	if err := deregisterMissing(r.db, r.outputPath); err != nil {
		slog.Warn("error reconciling registry with local files", "error", err)
	}

	// Only signal update if there were actual changes
	if len(toDelete) > 0 || len(toDownload) > 0 {
		select {
		case r.Updated <- true:
		default:
		}
	}
	return nil
}

func (r *RemoteManager) Run(ctx context.Context) {
	ticker := time.NewTicker(remoteCheckInterval)
	defer ticker.Stop()

	// Initial sync
	syncCtx, cancel := context.WithTimeout(ctx, time.Duration(30*time.Minute))
	if err := r.SyncFolder(syncCtx); err != nil {
		slog.Warn("error while syncing with remote", "error", err)
	}
	cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncCtx, cancel = context.WithTimeout(ctx, time.Duration(30*time.Minute))
			if err := r.SyncFolder(syncCtx); err != nil {
				slog.Warn("error while syncing with remote", "error", err)
			}
			cancel()
		}
	}
}
