// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package source

import (
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
)

// Setting names read from the *_settings tables.
const (
	settingTitle       = "title"
	settingAbstract    = "abstract"
	settingGivenName   = "givenName"
	settingFamilyName  = "familyName"
	settingAffiliation = "affiliation"
	settingCountry     = "country"
	settingBiography   = "biography"
	settingInterests   = "interests"
)

// identifierPattern restricts configurable table names.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// queries builds the provider statements for one placeholder style.
type queries struct {
	sb              sq.StatementBuilderType
	usageTable      string
	publishedStatus int
}

func newQueries(driver, usageTable string, publishedStatus int) (*queries, error) {
	if !identifierPattern.MatchString(usageTable) {
		return nil, fmt.Errorf("invalid usage table name %q", usageTable)
	}

	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}

	return &queries{
		sb:              sq.StatementBuilder.PlaceholderFormat(format),
		usageTable:      usageTable,
		publishedStatus: publishedStatus,
	}, nil
}

func (q *queries) publications() (string, []interface{}, error) {
	return q.sb.
		Select("p.publication_id", "p.submission_id", "p.date_published").
		From("publications p").
		Join("submissions s ON s.submission_id = p.submission_id").
		Where(sq.Eq{"p.status": q.publishedStatus}).
		OrderBy("p.publication_id").
		ToSql()
}

func (q *queries) publicationSettings() (string, []interface{}, error) {
	return q.sb.
		Select("ps.publication_id", "ps.locale", "ps.setting_name", "ps.setting_value").
		From("publication_settings ps").
		Join("publications p ON p.publication_id = ps.publication_id").
		Where(sq.Eq{
			"p.status":        q.publishedStatus,
			"ps.setting_name": []string{settingTitle, settingAbstract},
		}).
		ToSql()
}

func (q *queries) authorSettings() (string, []interface{}, error) {
	return q.sb.
		Select("a.publication_id", "a.author_id", "a.seq", "aus.locale", "aus.setting_name", "aus.setting_value").
		From("authors a").
		Join("author_settings aus ON aus.author_id = a.author_id").
		Join("publications p ON p.publication_id = a.publication_id").
		Where(sq.Eq{
			"p.status":         q.publishedStatus,
			"aus.setting_name": []string{settingGivenName, settingFamilyName, settingAffiliation},
		}).
		OrderBy("a.publication_id", "a.seq", "a.author_id").
		ToSql()
}

func (q *queries) users() (string, []interface{}, error) {
	return q.sb.
		Select("u.user_id", "u.date_registered", "u.date_last_login",
			"COUNT(DISTINCT se.session_id) AS session_count").
		From("users u").
		LeftJoin("sessions se ON se.user_id = u.user_id").
		GroupBy("u.user_id", "u.date_registered", "u.date_last_login").
		OrderBy("u.user_id").
		ToSql()
}

func (q *queries) userSettings(userID int) (string, []interface{}, error) {
	return q.sb.
		Select("setting_name", "locale", "setting_value").
		From("user_settings").
		Where(sq.Eq{
			"user_id": userID,
			"setting_name": []string{
				settingGivenName, settingFamilyName, settingCountry,
				settingAffiliation, settingBiography, settingInterests,
			},
		}).
		ToSql()
}

func (q *queries) usageEvents() (string, []interface{}, error) {
	return q.sb.
		Select("user_id", "publication_id", "event_type",
			"COALESCE(duration_seconds, 0) AS duration_seconds", "rating", "created_at").
		From(q.usageTable).
		OrderBy("created_at", "user_id", "publication_id").
		ToSql()
}
