package transformer

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/model"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/schema"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/slug"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/pkg/records"
)

// Options configures row normalization.
type Options struct {
	Slug slug.Options

	// OnMalformed is PolicyAbort (default) or PolicySkip.
	OnMalformed Policy

	// Workers > 1 normalizes rows concurrently. Output order always matches
	// input order.
	Workers int

	// OnRow, when set, is called once per processed row. It may be called
	// from several goroutines.
	OnRow func()
}

// NormalizeRow builds the Organization and SchoolStats records for one row
// that already passed the name filter. A count cell that is not a
// non-negative whole number yields a *MalformedRowError.
func NormalizeRow(row records.Row, opt slug.Options) (model.School, error) {
	s, mre := normalizeRow(row, opt)
	if mre != nil {
		return model.School{}, mre
	}
	return s, nil
}

func normalizeRow(row records.Row, opt slug.Options) (model.School, *MalformedRowError) {
	f := row.Fields
	s := model.School{Line: row.Line}

	s.Organization.Name = Text(f[schema.FieldName])
	s.Data.NPSN = strings.TrimSpace(Text(f[schema.FieldNPSN]))
	s.Data.Stats.Jenis = Text(f[schema.FieldBP])
	s.Data.Stats.Status = Text(f[schema.FieldStatus])

	counts := []struct {
		field string
		dst   *int64
	}{
		{schema.FieldPD, &s.Data.Stats.Siswa},
		{schema.FieldGuru, &s.Data.Stats.Guru},
		{schema.FieldPegawai, &s.Data.Stats.Pegawai},
		{schema.FieldRombel, &s.Data.Stats.Rombel},
	}
	for _, c := range counts {
		n, err := Count(f[c.field])
		if err != nil {
			col, _ := schema.Lookup(c.field)
			return model.School{}, &MalformedRowError{Line: row.Line, Column: col.Label, Value: f[c.field], Err: err}
		}
		*c.dst = n
	}

	s.Organization.Slug = opt.Make(s.Organization.Name)
	if s.Organization.Slug == "" && s.Data.NPSN != "" {
		s.Organization.Slug = opt.Make("n" + s.Data.NPSN)
	}
	return s, nil
}

// Normalized is the outcome of NormalizeAll.
type Normalized struct {
	Schools []model.School
	Skipped []*MalformedRowError
}

// NormalizeAll runs NormalizeRow over rows and keeps source order.
//
// Under PolicyAbort the error of the earliest malformed row is returned, no
// matter which worker saw it first. Under PolicySkip malformed rows are left
// out and reported in Skipped.
func NormalizeAll(ctx context.Context, rows []records.Row, opt Options) (*Normalized, error) {
	policy := opt.OnMalformed
	if policy == "" {
		policy = PolicyAbort
	}

	schools := make([]model.School, len(rows))
	errs := make([]*MalformedRowError, len(rows))

	work := func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, mre := normalizeRow(rows[i], opt.Slug)
		if opt.OnRow != nil {
			opt.OnRow()
		}
		if mre != nil {
			errs[i] = mre
			return nil
		}
		schools[i] = s
		return nil
	}

	if opt.Workers <= 1 {
		for i := range rows {
			if err := work(i); err != nil {
				return nil, err
			}
			if errs[i] != nil && policy == PolicyAbort {
				return nil, errs[i]
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opt.Workers)
		for i := range rows {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error { return work(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	out := &Normalized{Schools: make([]model.School, 0, len(rows))}
	for i := range rows {
		if errs[i] != nil {
			if policy == PolicyAbort {
				return nil, errs[i]
			}
			out.Skipped = append(out.Skipped, errs[i])
			continue
		}
		out.Schools = append(out.Schools, schools[i])
	}
	return out, nil
}
