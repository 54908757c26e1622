// Package client assembles the application from configuration: the state
// store, the document repository, the workflow session, export files and the
// optional reverse geocoder.
package client

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/TheMichaelB/triplog/internal/aggregate"
	"github.com/TheMichaelB/triplog/internal/backup"
	"github.com/TheMichaelB/triplog/internal/config"
	"github.com/TheMichaelB/triplog/internal/events"
	"github.com/TheMichaelB/triplog/internal/geocode"
	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/money"
	"github.com/TheMichaelB/triplog/internal/report"
	"github.com/TheMichaelB/triplog/internal/state"
	"github.com/TheMichaelB/triplog/internal/storage"
	"github.com/TheMichaelB/triplog/internal/workflow"
)

// Client provides the high-level API used by the command line.
type Client struct {
	Session  *workflow.Session
	Repo     *state.Repository
	Exports  storage.FileStore
	Geocoder *geocode.Client

	config  *config.Config
	logger  *events.Logger
	store   state.Store
	loaded  state.Loaded
	loadErr error
	now     func() time.Time

	// detached is set while the stored document could not be read. Writes
	// of the state document are refused until an import replaces it.
	detached atomic.Bool
}

// ErrDetached is returned by writes made after the stored document could
// not be read. It matches state.ErrUnavailable.
var ErrDetached = errors.New("stored log was not read, changes kept in memory")

// Option configures a Client.
type Option func(*options)

type options struct {
	now     func() time.Time
	store   state.Store
	exports storage.FileStore
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithStore uses store instead of opening the configured backend.
func WithStore(store state.Store) Option {
	return func(o *options) { o.store = store }
}

// WithExports uses files instead of the export directory.
func WithExports(files storage.FileStore) Option {
	return func(o *options) { o.exports = files }
}

// New creates a client. An unreadable stored document does not fail New:
// the client starts from an empty state and LoadErr reports the problem.
func New(cfg *config.Config, logger *events.Logger, opts ...Option) (*Client, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = OpenStore(&cfg.Storage, logger)
		if err != nil {
			return nil, err
		}
	}

	exports := o.exports
	if exports == nil {
		files, err := storage.NewExportStore(cfg.Storage.ExportDir, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		exports = files
	}

	repo := state.NewRepository(store, state.Keys{
		State:   cfg.Storage.StateKey,
		Legacy:  cfg.Storage.LegacyKey,
		Profile: cfg.Storage.ProfileKey,
	}, logger)

	loaded, loadErr := repo.Load()
	if loadErr != nil {
		logger.WithError(loadErr).Warn("Starting with an empty log")
	}

	geocoder := geocode.NewClient(&cfg.Geocode, logger)
	geocoder.SetLanguage(cfg.Report.Language)

	c := &Client{
		Repo:     repo,
		Exports:  exports,
		Geocoder: geocoder,
		config:   cfg,
		logger:   logger.WithField("component", "client"),
		store:    store,
		loaded:   loaded,
		loadErr:  loadErr,
		now:      o.now,
	}
	c.detached.Store(loadErr != nil)

	c.Session = workflow.NewSession(loaded.State, c.save,
		workflow.WithLogger(logger),
		workflow.WithClock(o.now),
		workflow.WithDraftDelay(cfg.Draft.Debounce),
	)
	return c, nil
}

// save is the session's persistence hook.
func (c *Client) save(st models.AppState) error {
	if c.detached.Load() {
		return &state.UnavailableError{Op: "write", Key: c.Repo.Keys().State, Err: ErrDetached}
	}
	return c.Repo.Save(st)
}

// Detached reports whether state writes are refused because the stored
// document could not be read at startup.
func (c *Client) Detached() bool {
	return c.detached.Load()
}

// OpenStore opens the configured key-value backend.
func OpenStore(cfg *config.StorageConfig, logger *events.Logger) (state.Store, error) {
	switch cfg.Backend {
	case config.BackendJSON:
		return state.NewJSONStore(cfg.StateDir, logger)
	case config.BackendSQLite:
		return state.NewSQLiteStore(cfg.DBPath, logger)
	case config.BackendMemory:
		return state.NewMockStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// Config returns the active configuration.
func (c *Client) Config() *config.Config {
	return c.config
}

// Loaded describes how the state was read at startup.
func (c *Client) Loaded() state.Loaded {
	return c.loaded
}

// LoadErr returns the startup read failure, if any.
func (c *Client) LoadErr() error {
	return c.loadErr
}

// Formatter returns a number formatter for the profile language, falling
// back to the configured report language.
func (c *Client) Formatter() *money.Formatter {
	lang := c.config.Report.Language
	if p, err := c.Repo.LoadProfile(); err == nil && p.Language != "" {
		lang = p.Language
	}
	return money.NewFormatter(lang)
}

// ActiveVehicle returns the selected vehicle or ErrNoVehicle.
func (c *Client) ActiveVehicle() (models.Vehicle, error) {
	v, ok := c.Session.State().ActiveVehicle()
	if !ok {
		return models.Vehicle{}, models.NewValidationError(models.ErrCodeNoVehicle, "", models.ErrNoVehicle)
	}
	return v, nil
}

// MonthSummary summarizes the selected vehicle. An empty month uses the
// month stored in the view state.
func (c *Client) MonthSummary(month string) (aggregate.MonthSummary, models.Vehicle, error) {
	st := c.Session.State()
	v, ok := st.ActiveVehicle()
	if !ok {
		return aggregate.MonthSummary{}, models.Vehicle{}, models.NewValidationError(models.ErrCodeNoVehicle, "", models.ErrNoVehicle)
	}
	if month == "" {
		month = st.UI.Month
	}
	return aggregate.Month(st, v.ID, month, c.config.Report.BaseCurrency), v, nil
}

// RangeReport builds the report for the selected vehicle.
func (c *Client) RangeReport(start, end string) (aggregate.RangeReport, models.Vehicle, error) {
	st := c.Session.State()
	v, ok := st.ActiveVehicle()
	if !ok {
		return aggregate.RangeReport{}, models.Vehicle{}, models.NewValidationError(models.ErrCodeNoVehicle, "", models.ErrNoVehicle)
	}
	return aggregate.Range(st, v.ID, start, end, c.config.Report.BaseCurrency), v, nil
}

// Report formats accepted by WriteReport.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatMail = "eml"
)

// WriteReport renders r and stores it in the export directory. It returns
// the stored file name.
func (c *Client) WriteReport(r aggregate.RangeReport, vehicle models.Vehicle, format string) (string, error) {
	base := report.FileBase(r)

	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		if err := report.WriteCSV(&buf, r); err != nil {
			return "", err
		}
	case FormatJSON:
		if err := report.NewDocument(r, vehicle, c.now()).WriteJSON(&buf); err != nil {
			return "", err
		}
	case FormatMail:
		msg := report.Message{
			From:       c.config.Mail.From,
			To:         []string{c.config.Mail.To},
			Subject:    fmt.Sprintf("%s %s to %s", c.config.Mail.SubjectPrefix, r.Start, r.End),
			Body:       report.Summary(r, vehicle, c.Formatter()),
			Attachment: report.CSV(r),
			Filename:   base + ".csv",
			Date:       c.now(),
		}
		if err := report.ComposeEmail(&buf, msg); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}

	name, err := c.Exports.Write(base+"."+format, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("store report: %w", err)
	}
	c.logger.WithFields(map[string]interface{}{
		"file":   name,
		"format": format,
		"trips":  len(r.Trips),
	}).Info("Report written")
	return name, nil
}

// backupPrefix starts every backup file name.
const backupPrefix = "triplog-backup-"

// ExportBackup writes the full backup document and returns its file name.
func (c *Client) ExportBackup() (string, error) {
	profile, err := c.Repo.LoadProfile()
	if err != nil {
		c.logger.WithError(err).Warn("Exporting without profile")
	}

	now := c.now()
	env := backup.Export(c.Session.State(), profile, backup.Meta{
		AppID:      c.config.Report.AppID,
		StorageKey: c.config.Storage.StateKey,
	}, now)

	var buf bytes.Buffer
	if err := env.Write(&buf); err != nil {
		return "", err
	}

	name, err := c.Exports.Write(backupPrefix+now.UTC().Format("20060102-150405")+".json", buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("store backup: %w", err)
	}
	c.logger.WithField("file", name).Info("Backup written")
	return name, nil
}

// PruneBackups removes all but the newest keep backups. Stores other than
// the export directory are left alone.
func (c *Client) PruneBackups(keep int) (int, error) {
	files, ok := c.Exports.(*storage.ExportStore)
	if !ok {
		return 0, nil
	}
	return files.Prune(backupPrefix, keep)
}

// ImportBackup replaces the state with the contents of data. A profile in
// the envelope replaces the stored profile.
func (c *Client) ImportBackup(data []byte) (backup.Imported, error) {
	imported, err := backup.Import(data, c.now())
	if err != nil {
		return backup.Imported{}, err
	}

	// An import is an explicit replacement of the unread document.
	c.detached.Store(false)
	c.Session.Replace(imported.State)
	if imported.Profile != nil {
		if err := c.Repo.SaveProfile(*imported.Profile); err != nil {
			c.logger.WithError(err).Warn("Failed to save imported profile")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"variant":  imported.Variant.String(),
		"vehicles": len(imported.State.Vehicles),
	}).Info("Backup imported")
	return imported, nil
}

// MigrateStorage copies every stored document into the backend named by
// target and returns the number of keys copied.
func (c *Client) MigrateStorage(target config.StorageConfig) (int, error) {
	if target.Backend == c.config.Storage.Backend {
		return 0, errors.New("target backend equals the current backend")
	}

	dst, err := OpenStore(&target, c.logger)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	c.Session.FlushDraft()
	if err := c.store.Migrate(dst); err != nil {
		return 0, fmt.Errorf("migrate to %s: %w", target.Backend, err)
	}

	keys, err := dst.Keys()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Close flushes any pending draft and closes the store.
func (c *Client) Close() error {
	c.Session.FlushDraft()
	c.Session.Close()
	return c.store.Close()
}
