// Package gifsafe validates untrusted animated assets and breaks boot
// loops caused by assets that crash the device mid-playback
package gifsafe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/epicweatherbox/weatherbox/util"
)

// Validation limits. The display is 240x240 and anything past half a
// megabyte cannot decode within the device's memory budget.
const (
	MaxBytes  = 512 * 1024
	MaxWidth  = 240
	MaxHeight = 240
)

// markerFileName is the durable attempt marker. It exists exactly while
// a playback attempt is unconfirmed, so finding it at boot proves the
// previous attempt took the device down.
const markerFileName = "gif_attempt"

// State of the playback safety machine.
type State int

const (
	StateIdle State = iota
	StateAttemptInProgress
	StateValidated
)

var (
	ErrUnsupportedExt = errors.New("unsupported animated asset extension")
	ErrBadSignature   = errors.New("missing GIF signature")
	ErrTooLarge       = errors.New("animated asset exceeds byte size limit")
	ErrOversized      = errors.New("animated asset exceeds display dimensions")
)

// QuarantineRecorder is notified whenever a file is removed for safety.
// Implemented by the asset store; a nil recorder just skips the history.
type QuarantineRecorder interface {
	RecordQuarantine(name, reason string) error
}

// Controller owns the attempt marker and the validation gate in front
// of the decoder.
type Controller struct {
	markerPath string
	recorder   QuarantineRecorder
	state      State
}

// NewController binds the controller to the directory holding the
// marker file.
func NewController(rootPath string, recorder QuarantineRecorder) *Controller {
	return &Controller{
		markerPath: filepath.Join(rootPath, markerFileName),
		recorder:   recorder,
	}
}

// State returns the current safety state.
func (c *Controller) State() State {
	return c.state
}

// RecoverBoot inspects the marker left by the previous session. Call
// once at startup before any playback. A present marker means the last
// attempt never completed: the named file is deleted so it can never be
// retried, the quarantine is recorded, and the marker is cleared. An
// absent marker confirms the previous attempt, moving the machine to
// Validated.
func (c *Controller) RecoverBoot() (removed string, poisoned bool) {
	data, err := os.ReadFile(c.markerPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("unable to read attempt marker", "path", c.markerPath, "error", err)
		}
		c.state = StateValidated
		return "", false
	}

	target := strings.TrimSpace(string(data))
	slog.Warn("attempt marker present at boot, previous playback crashed the device", "asset", target)

	if target != "" {
		c.removeAsset(target, "crashed device during playback")
	}
	c.clearMarker()
	c.state = StateIdle
	return target, true
}

// Validate rejects a file before it may reach the decoder: wrong
// extension, missing GIF signature, too many bytes, or logical screen
// dimensions past the display. Any failure deletes the file - the
// device self-heals because nobody may be around to clean up by hand.
func (c *Controller) Validate(path string) error {
	if !util.SupportedAnimExt.Contains(filepath.Ext(path)) {
		c.removeAsset(path, "unsupported extension")
		return ErrUnsupportedExt
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unable to stat animated asset: %w", err)
	}
	if info.Size() > MaxBytes {
		c.removeAsset(path, fmt.Sprintf("size %d exceeds limit %d", info.Size(), MaxBytes))
		return ErrTooLarge
	}

	width, height, err := readLogicalScreen(path)
	if err != nil {
		c.removeAsset(path, "invalid GIF header")
		return err
	}
	if width > MaxWidth || height > MaxHeight {
		c.removeAsset(path, fmt.Sprintf("dimensions %dx%d exceed display %dx%d", width, height, MaxWidth, MaxHeight))
		return ErrOversized
	}

	return nil
}

// BeginAttempt durably marks a playback attempt for the given file.
// The marker must hit storage before the decoder touches the file, so
// a watchdog reset mid-decode is attributable on the next boot.
func (c *Controller) BeginAttempt(path string) error {
	if err := os.WriteFile(c.markerPath, []byte(path), 0o644); err != nil {
		return fmt.Errorf("unable to write attempt marker: %w", err)
	}
	c.state = StateAttemptInProgress
	return nil
}

// EndAttempt clears the marker after the playback pass returned
// normally. The attempt is only inferred fully safe on the next boot,
// when the marker is found absent.
func (c *Controller) EndAttempt() {
	c.clearMarker()
	c.state = StateIdle
}

func (c *Controller) clearMarker() {
	if err := os.Remove(c.markerPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("unable to clear attempt marker", "path", c.markerPath, "error", err)
	}
}

func (c *Controller) removeAsset(path, reason string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("unable to remove rejected asset", "path", path, "error", err)
	} else {
		slog.Info("removed animated asset", "path", path, "reason", reason)
	}
	if c.recorder != nil {
		if err := c.recorder.RecordQuarantine(filepath.Base(path), reason); err != nil {
			slog.Warn("unable to record quarantine", "name", filepath.Base(path), "error", err)
		}
	}
}

// Probe returns the logical screen dimensions of a GIF that already
// passed Validate, for registry bookkeeping.
func Probe(path string) (width, height int, err error) {
	return readLogicalScreen(path)
}

// readLogicalScreen reads the 13-byte GIF header and returns the
// logical screen dimensions. It deliberately avoids the image decoder;
// this check exists to keep bad files away from it.
func readLogicalScreen(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to open animated asset: %w", err)
	}
	defer f.Close()

	var header [13]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return 0, 0, ErrBadSignature
	}

	sig := string(header[:6])
	if sig != "GIF87a" && sig != "GIF89a" {
		return 0, 0, ErrBadSignature
	}

	width = int(header[6]) | int(header[7])<<8
	height = int(header[8]) | int(header[9])<<8
	return width, height, nil
}
