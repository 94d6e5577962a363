package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/recital-seat-booking/internal/model"
)

// ShowSearchQuery filters and pages the public show listing.  Name matches
// case-insensitively anywhere in the show name; Upcoming drops shows whose
// date has passed.  Page is 1-based.
type ShowSearchQuery struct {
	Name     string
	Upcoming bool
	Page     int
	PageSize int
}

// Search returns one page of shows matching q, ordered by date, together
// with the total number of matches.
func (r *ShowRepo) Search(ctx context.Context, q ShowSearchQuery) ([]model.ShowSummary, int64, error) {
	where := []string{}
	args := []any{}
	if q.Upcoming {
		where = append(where, "sh.show_date >= UTC_TIMESTAMP()")
	}
	if name := strings.TrimSpace(q.Name); name != "" {
		where = append(where, "LOWER(sh.name) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(name))+"%")
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	db := conn(ctx, r.db)
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows sh WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}
	if total == 0 {
		return []model.ShowSummary{}, 0, nil
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	dataSQL := showSummarySelect + ` WHERE ` + cond + showSummaryGroup + ` LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, dataSQL, append(args, size, (page-1)*size)...)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer rows.Close()
	out, err := scanSummaries(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// escapeLike makes % and _ in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
