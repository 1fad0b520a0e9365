// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package source

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// Supported drivers.
const (
	DriverPostgres = config.DriverPostgres
	DriverSQLite   = config.DriverSQLite
)

// driverNames maps configured drivers to database/sql driver names.
var driverNames = map[string]string{
	DriverPostgres: "postgres",
	DriverSQLite:   "sqlite",
}

// SQLProvider implements recommend.DataProvider over the journal database.
type SQLProvider struct {
	db      *sqlx.DB
	q       *queries
	locales []string
	timeout time.Duration
	logger  zerolog.Logger
}

var _ recommend.DataProvider = (*SQLProvider)(nil)

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.SourceConfig, logger zerolog.Logger) (*SQLProvider, error) {
	driverName, ok := driverNames[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported source driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", cfg.Driver, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen < 1 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns((maxOpen + 1) / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	p, err := NewSQLProvider(db, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := p.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewSQLProvider wraps an open connection.
func NewSQLProvider(db *sqlx.DB, cfg config.SourceConfig, logger zerolog.Logger) (*SQLProvider, error) {
	q, err := newQueries(cfg.Driver, cfg.UsageTable, cfg.PublishedStatus)
	if err != nil {
		return nil, err
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &SQLProvider{
		db:      db,
		q:       q,
		locales: cfg.Locales,
		timeout: timeout,
		logger:  logger.With().Str("component", "source").Str("driver", cfg.Driver).Logger(),
	}, nil
}

// Ping verifies the database is reachable.
func (p *SQLProvider) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping source: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (p *SQLProvider) Close() error {
	return p.db.Close()
}

// publicationRow is one published article without localized fields.
type publicationRow struct {
	ID            int        `db:"publication_id"`
	SubmissionID  int        `db:"submission_id"`
	DatePublished *time.Time `db:"date_published"`
}

// settingRow is one localized publication setting.
type settingRow struct {
	PublicationID int            `db:"publication_id"`
	Locale        sql.NullString `db:"locale"`
	Name          string         `db:"setting_name"`
	Value         sql.NullString `db:"setting_value"`
}

// authorSettingRow is one localized author setting.
type authorSettingRow struct {
	PublicationID int            `db:"publication_id"`
	AuthorID      int            `db:"author_id"`
	Seq           float64        `db:"seq"`
	Locale        sql.NullString `db:"locale"`
	Name          string         `db:"setting_name"`
	Value         sql.NullString `db:"setting_value"`
}

// FetchArticles returns published articles with titles and abstracts in the
// preferred locale and authors joined by "; ".
func (p *SQLProvider) FetchArticles(ctx context.Context) ([]recommend.RawArticle, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	start := time.Now()

	var pubs []publicationRow
	if err := p.selectQuery(ctx, &pubs, p.q.publications); err != nil {
		return nil, fmt.Errorf("fetch publications: %w", err)
	}

	var settings []settingRow
	if err := p.selectQuery(ctx, &settings, p.q.publicationSettings); err != nil {
		return nil, fmt.Errorf("fetch publication settings: %w", err)
	}

	var authorRows []authorSettingRow
	if err := p.selectQuery(ctx, &authorRows, p.q.authorSettings); err != nil {
		return nil, fmt.Errorf("fetch author settings: %w", err)
	}

	titles := make(map[int]localized)
	abstracts := make(map[int]localized)
	for _, s := range settings {
		target := titles
		if s.Name == settingAbstract {
			target = abstracts
		}
		if target[s.PublicationID] == nil {
			target[s.PublicationID] = make(localized)
		}
		target[s.PublicationID].add(s.Locale.String, s.Value.String)
	}

	authors := foldAuthors(authorRows, p.locales)

	articles := make([]recommend.RawArticle, 0, len(pubs))
	for _, pub := range pubs {
		a := authors[pub.ID]
		articles = append(articles, recommend.RawArticle{
			ID:           pub.ID,
			SubmissionID: pub.SubmissionID,
			Title:        titles[pub.ID].pick(p.locales),
			Abstract:     abstracts[pub.ID].pick(p.locales),
			Authors:      a.names(),
			Affiliations: a.affiliations(),
			PublishedAt:  pub.DatePublished,
		})
	}

	metrics.RecordSourceQuery("articles", time.Since(start), len(articles))
	p.logger.Debug().Int("articles", len(articles)).Dur("duration", time.Since(start)).Msg("Fetched articles")
	return articles, nil
}

// FetchUsers returns registered users with their distinct session counts.
func (p *SQLProvider) FetchUsers(ctx context.Context) ([]recommend.RawUser, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	start := time.Now()

	var users []recommend.RawUser
	if err := p.selectQuery(ctx, &users, p.q.users); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	metrics.RecordSourceQuery("users", time.Since(start), len(users))
	return users, nil
}

// FetchUserProfile returns the profile of one user, or nil when the user
// has no profile settings.
func (p *SQLProvider) FetchUserProfile(ctx context.Context, userID int) (*recommend.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	start := time.Now()

	var rows []struct {
		Name   string         `db:"setting_name"`
		Locale sql.NullString `db:"locale"`
		Value  sql.NullString `db:"setting_value"`
	}
	err := p.selectQuery(ctx, &rows, func() (string, []interface{}, error) {
		return p.q.userSettings(userID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch profile of user %d: %w", userID, err)
	}
	metrics.RecordSourceQuery("user_profile", time.Since(start), len(rows))

	if len(rows) == 0 {
		return nil, nil
	}

	values := make(map[string]localized)
	for _, r := range rows {
		if values[r.Name] == nil {
			values[r.Name] = make(localized)
		}
		values[r.Name].add(r.Locale.String, r.Value.String)
	}

	return &recommend.UserProfile{
		UserID:      userID,
		GivenName:   values[settingGivenName].pick(p.locales),
		FamilyName:  values[settingFamilyName].pick(p.locales),
		Country:     values[settingCountry].pick(p.locales),
		Affiliation: values[settingAffiliation].pick(p.locales),
		Biography:   values[settingBiography].pick(p.locales),
		Interests:   values[settingInterests].pick(p.locales),
	}, nil
}

// FetchUsageEvents returns the usage log ordered by time.
func (p *SQLProvider) FetchUsageEvents(ctx context.Context) ([]recommend.UsageEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	start := time.Now()

	var events []recommend.UsageEvent
	if err := p.selectQuery(ctx, &events, p.q.usageEvents); err != nil {
		return nil, fmt.Errorf("fetch usage events: %w", err)
	}

	metrics.RecordSourceQuery("usage_events", time.Since(start), len(events))
	return events, nil
}

// selectQuery builds a statement and scans all rows into dest.
func (p *SQLProvider) selectQuery(ctx context.Context, dest interface{}, build func() (string, []interface{}, error)) error {
	query, args, err := build()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return p.db.SelectContext(ctx, dest, query, args...)
}

// localized holds one setting's value per locale.
type localized map[string]string

func (l localized) add(locale, value string) {
	if value = strings.TrimSpace(value); value != "" {
		l[locale] = value
	}
}

// pick returns the value in the first preferred locale (exact, then by
// language prefix such as es_ES), then the locale-neutral value, then the
// value of the lowest-sorting locale.
func (l localized) pick(prefs []string) string {
	if len(l) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, loc := range prefs {
		if v, ok := l[loc]; ok {
			return v
		}
		for _, k := range keys {
			if strings.HasPrefix(k, loc+"_") {
				return l[k]
			}
		}
	}
	if v, ok := l[""]; ok {
		return v
	}
	return l[keys[0]]
}

// author is one contributor with localized name parts.
type author struct {
	id          int
	seq         float64
	given       localized
	family      localized
	affiliation localized
}

// authorList is the ordered author list of one publication.
type authorList struct {
	authors []*author
	locales []string
}

func (al authorList) names() string {
	names := make([]string, 0, len(al.authors))
	for _, a := range al.authors {
		name := strings.TrimSpace(a.given.pick(al.locales) + " " + a.family.pick(al.locales))
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "; ")
}

func (al authorList) affiliations() string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range al.authors {
		aff := a.affiliation.pick(al.locales)
		if aff == "" {
			continue
		}
		if _, ok := seen[aff]; ok {
			continue
		}
		seen[aff] = struct{}{}
		out = append(out, aff)
	}
	return strings.Join(out, "; ")
}

// foldAuthors groups author settings by publication, keeping seq order.
func foldAuthors(rows []authorSettingRow, locales []string) map[int]authorList {
	byID := make(map[int]*author)
	lists := make(map[int]authorList)

	for _, r := range rows {
		a, ok := byID[r.AuthorID]
		if !ok {
			a = &author{
				id:          r.AuthorID,
				seq:         r.Seq,
				given:       make(localized),
				family:      make(localized),
				affiliation: make(localized),
			}
			byID[r.AuthorID] = a
			al := lists[r.PublicationID]
			al.authors = append(al.authors, a)
			al.locales = locales
			lists[r.PublicationID] = al
		}

		switch r.Name {
		case settingGivenName:
			a.given.add(r.Locale.String, r.Value.String)
		case settingFamilyName:
			a.family.add(r.Locale.String, r.Value.String)
		case settingAffiliation:
			a.affiliation.add(r.Locale.String, r.Value.String)
		}
	}

	for _, al := range lists {
		sort.SliceStable(al.authors, func(i, j int) bool {
			if al.authors[i].seq != al.authors[j].seq {
				return al.authors[i].seq < al.authors[j].seq
			}
			return al.authors[i].id < al.authors[j].id
		})
	}
	return lists
}
