package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"rfm-segments/pkg/idnorm"
	"rfm-segments/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

// Open DSN mariadb:// or mysql:// → MySQL driver format
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// Loader reads the four per-region input tables. Identifier normalization
// happens here, at the boundary, so the core only ever sees canonical keys.
type Loader struct {
	db      *sql.DB
	idWidth int
}

func NewLoader(db *sql.DB, idWidth int) *Loader {
	return &Loader{db: db, idWidth: idWidth}
}

// LoadRegion reads all inputs of one region. Malformed identifiers collapse
// to the all-zero sentinel and are tallied in RegionData.SentinelIDs instead
// of failing the load.
func (l *Loader) LoadRegion(ctx context.Context, region string) (models.RegionData, error) {
	data := models.RegionData{Region: region}

	profiles, sentinels, err := l.loadProfiles(ctx, region)
	if err != nil {
		return data, fmt.Errorf("load customer_addresses: %w", err)
	}
	data.Profiles = profiles
	data.SentinelIDs += sentinels

	transactions, sentinels, err := l.loadTransactions(ctx, region)
	if err != nil {
		return data, fmt.Errorf("load customer_transactions: %w", err)
	}
	data.Transactions = transactions
	data.SentinelIDs += sentinels

	prefs, sentinels, err := l.loadEmailPrefs(ctx, region)
	if err != nil {
		return data, fmt.Errorf("load email_preferences: %w", err)
	}
	data.EmailPrefs = prefs
	data.SentinelIDs += sentinels

	groups, sentinels, err := l.loadGroups(ctx, region)
	if err != nil {
		return data, fmt.Errorf("load customer_groups: %w", err)
	}
	data.Groups = groups
	data.SentinelIDs += sentinels

	return data, nil
}

func (l *Loader) loadProfiles(ctx context.Context, region string) ([]models.Profile, int, error) {
	const q = `
		SELECT customer_id, registration_date, source
		FROM customer_addresses
		WHERE region = ?`
	rows, err := l.db.QueryContext(ctx, q, region)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Profile
	sentinels := 0
	for rows.Next() {
		var (
			rawID  sql.NullString
			reg    sql.NullTime
			source sql.NullString
		)
		if err := rows.Scan(&rawID, &reg, &source); err != nil {
			return nil, 0, err
		}
		id, ok := idnorm.Normalize(rawID.String, l.idWidth)
		if !ok {
			sentinels++
		}
		out = append(out, models.Profile{
			CustomerID:       id,
			RegistrationDate: reg.Time,
			Source:           source.String,
		})
	}
	return out, sentinels, rows.Err()
}

func (l *Loader) loadTransactions(ctx context.Context, region string) ([]models.Transaction, int, error) {
	const q = `
		SELECT order_reference, order_number, gross_amount, tax1, tax2, tax3, transaction_date
		FROM customer_transactions
		WHERE region = ?`
	rows, err := l.db.QueryContext(ctx, q, region)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Transaction
	sentinels := 0
	for rows.Next() {
		var (
			ref     sql.NullString
			orderID sql.NullString
			gross   sql.NullFloat64
			tax1    sql.NullFloat64
			tax2    sql.NullFloat64
			tax3    sql.NullFloat64
			date    sql.NullTime
		)
		if err := rows.Scan(&ref, &orderID, &gross, &tax1, &tax2, &tax3, &date); err != nil {
			return nil, 0, err
		}
		customerID, ok := idnorm.FromOrderReference(ref.String, l.idWidth)
		if !ok {
			sentinels++
		}
		out = append(out, models.Transaction{
			OrderReference: ref.String,
			OrderID:        orderID.String,
			CustomerID:     customerID,
			Gross:          gross.Float64,
			Tax1:           tax1.Float64,
			Tax2:           tax2.Float64,
			Tax3:           tax3.Float64,
			Date:           date.Time,
		})
	}
	return out, sentinels, rows.Err()
}

func (l *Loader) loadEmailPrefs(ctx context.Context, region string) ([]models.EmailPreference, int, error) {
	const q = `
		SELECT customer_id, email_type
		FROM email_preferences
		WHERE region = ?`
	rows, err := l.db.QueryContext(ctx, q, region)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.EmailPreference
	sentinels := 0
	for rows.Next() {
		var rawID, emailType sql.NullString
		if err := rows.Scan(&rawID, &emailType); err != nil {
			return nil, 0, err
		}
		id, ok := idnorm.Normalize(rawID.String, l.idWidth)
		if !ok {
			sentinels++
		}
		out = append(out, models.EmailPreference{CustomerID: id, EmailType: emailType.String})
	}
	return out, sentinels, rows.Err()
}

func (l *Loader) loadGroups(ctx context.Context, region string) ([]models.GroupLabel, int, error) {
	const q = `
		SELECT customer_id, customer_group
		FROM customer_groups
		WHERE region = ?`
	rows, err := l.db.QueryContext(ctx, q, region)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.GroupLabel
	sentinels := 0
	for rows.Next() {
		var rawID, group sql.NullString
		if err := rows.Scan(&rawID, &group); err != nil {
			return nil, 0, err
		}
		id, ok := idnorm.Normalize(rawID.String, l.idWidth)
		if !ok {
			sentinels++
		}
		out = append(out, models.GroupLabel{CustomerID: id, Group: group.String})
	}
	return out, sentinels, rows.Err()
}
