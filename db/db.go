package db

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sorenmh/appsmith/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when an application does not exist
var ErrNotFound = errors.New("application not found")

type Database struct {
	db *sql.DB
}

func New(path string) (*Database, error) {
	if err := runMigrations(path); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{db: db}, nil
}

// runMigrations applies the embedded migrations on a connection of its own
func runMigrations(path string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if err == migrate.ErrNoChange {
		return nil
	}
	return err
}

const appColumns = `id, name, description, icon, icon_background, mode, site_config, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var app models.Application
	var site string
	if err := row.Scan(&app.ID, &app.Name, &app.Description, &app.Icon, &app.IconBackground, &app.Mode, &site, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(site), &app.Site); err != nil {
		return nil, fmt.Errorf("failed to decode site config of %s: %w", app.ID, err)
	}
	return &app, nil
}

func (d *Database) CreateApplication(app *models.Application) error {
	site, err := json.Marshal(app.Site)
	if err != nil {
		return fmt.Errorf("failed to encode site config: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT INTO applications (`+appColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, app.ID, app.Name, app.Description, app.Icon, app.IconBackground, app.Mode, string(site), app.CreatedAt, app.UpdatedAt)

	return err
}

func (d *Database) GetApplication(id string) (*models.Application, error) {
	app, err := scanApplication(d.db.QueryRow(`SELECT `+appColumns+` FROM applications WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return app, err
}

func (d *Database) ListApplications(limit, offset int) ([]models.Application, int, error) {
	// Get total count
	total, err := d.CountApplications()
	if err != nil {
		return nil, 0, err
	}

	rows, err := d.db.Query(`
		SELECT `+appColumns+`
		FROM applications
		ORDER BY created_at DESC, name ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, *app)
	}

	return apps, total, rows.Err()
}

func (d *Database) CountApplications() (int, error) {
	var total int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM applications`).Scan(&total)
	return total, err
}

// UpdateApplicationInfo replaces the core metadata of an application. Mode
// and site config are not touched.
func (d *Database) UpdateApplicationInfo(id string, req *models.UpdateInfoRequest) (*models.Application, error) {
	res, err := d.db.Exec(`
		UPDATE applications
		SET name = ?, icon = ?, icon_background = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, req.Name, req.Icon, req.IconBackground, req.Description, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return d.GetApplication(id)
}

func (d *Database) UpdateSiteConfig(id string, site models.SiteConfig) error {
	data, err := json.Marshal(site)
	if err != nil {
		return fmt.Errorf("failed to encode site config: %w", err)
	}

	res, err := d.db.Exec(`
		UPDATE applications SET site_config = ?, updated_at = ? WHERE id = ?
	`, string(data), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteApplication(id string) error {
	res, err := d.db.Exec(`DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEvent appends to the audit log of an application. Events outlive the
// application they describe.
func (d *Database) AddEvent(appID, eventType, details string) error {
	_, err := d.db.Exec(`
		INSERT INTO application_events (app_id, event_type, details, timestamp)
		VALUES (?, ?, ?, ?)
	`, appID, eventType, details, time.Now().UTC())
	return err
}

// Event is an audit log entry
type Event struct {
	ID        int64
	AppID     string
	EventType string
	Details   string
	Timestamp time.Time
}

func (d *Database) GetEvents(appID string) ([]Event, error) {
	rows, err := d.db.Query(`
		SELECT id, app_id, event_type, COALESCE(details, ''), timestamp
		FROM application_events
		WHERE app_id = ?
		ORDER BY id ASC
	`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.AppID, &ev.EventType, &ev.Details, &ev.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) Ping() error {
	return d.db.Ping()
}
