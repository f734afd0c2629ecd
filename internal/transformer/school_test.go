package transformer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/model"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/slug"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/pkg/records"
)

func row(line int, name string, npsn any, pd any) records.Row {
	return records.Row{Line: line, Fields: records.Record{
		"name": name, "npsn": npsn, "bp": "SD", "status": "Negeri",
		"pd": pd, "guru": "8", "pegawai": "2", "rombel": "6",
	}}
}

func TestNormalizeRow_ReferenceExample(t *testing.T) {
	t.Parallel()

	in := records.Row{Line: 3, Fields: records.Record{
		"name": "SD Negeri 1", "npsn": "12345", "bp": "SD", "status": "Negeri",
		"pd": 120, "guru": 8, "pegawai": 2, "rombel": 6,
	}}
	got, err := NormalizeRow(in, slug.Options{})
	require.NoError(t, err)
	require.Equal(t, model.School{
		Line:         3,
		Organization: model.Organization{Name: "SD Negeri 1", Slug: "sd-negeri-1"},
		Data: model.SchoolStats{
			NPSN:  "12345",
			Stats: model.Stats{Siswa: 120, Guru: 8, Pegawai: 2, Rombel: 6, Jenis: "SD", Status: "Negeri"},
		},
	}, got)
}

func TestNormalizeRow_NullsDefault(t *testing.T) {
	t.Parallel()

	in := records.Row{Line: 4, Fields: records.Record{"name": "SD Kosong", "pd": nil}}
	got, err := NormalizeRow(in, slug.Options{})
	require.NoError(t, err)
	require.Equal(t, int64(0), got.Data.Stats.Siswa)
	require.Equal(t, int64(0), got.Data.Stats.Rombel)
	require.Equal(t, "", got.Data.NPSN)
	require.Equal(t, "", got.Data.Stats.Jenis, "null text must not become \"nan\"")
	require.Equal(t, "", got.Data.Stats.Status)
}

func TestNormalizeRow_KeepsApostropheRaw(t *testing.T) {
	t.Parallel()

	got, err := NormalizeRow(row(5, "O'Brien School", "1", "10"), slug.Options{})
	require.NoError(t, err)
	require.Equal(t, "O'Brien School", got.Organization.Name)
	require.Equal(t, "o-brien-school", got.Organization.Slug)
}

func TestNormalizeRow_NumericCells(t *testing.T) {
	t.Parallel()

	got, err := NormalizeRow(row(6, "SMP 1", 20212345.0, "120.0"), slug.Options{})
	require.NoError(t, err)
	require.Equal(t, "20212345", got.Data.NPSN)
	require.Equal(t, int64(120), got.Data.Stats.Siswa)
}

func TestNormalizeRow_SlugFallsBackToNPSN(t *testing.T) {
	t.Parallel()

	got, err := NormalizeRow(row(7, "???", "20212345", "1"), slug.Options{})
	require.NoError(t, err)
	require.Equal(t, "n20212345", got.Organization.Slug)

	got, err = NormalizeRow(row(8, "???", nil, "1"), slug.Options{})
	require.NoError(t, err)
	require.Equal(t, "", got.Organization.Slug)
}

func TestNormalizeRow_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pd      any
		wantErr error
	}{
		{"banyak", errNotNumber},
		{"12,5", errNotNumber},
		{"12.5", errFractional},
		{"-3", errNegative},
		{-3, errNegative},
		{"NaN", errNotNumber},
		{"99999999999999999999", errOverflow},
		{true, errNotNumber},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.pd), func(t *testing.T) {
			t.Parallel()
			_, err := NormalizeRow(row(9, "SD 9", "9", tt.pd), slug.Options{})
			var mre *MalformedRowError
			require.ErrorAs(t, err, &mre)
			require.Equal(t, 9, mre.Line)
			require.Equal(t, "PD", mre.Column)
			require.ErrorIs(t, err, tt.wantErr)
			require.Contains(t, err.Error(), "row 9: column PD")
		})
	}
}

func TestNormalizeAll_OrderAndPolicies(t *testing.T) {
	t.Parallel()

	rows := []records.Row{
		row(2, "A", "1", "1"),
		row(3, "B", "2", "x"),
		row(4, "C", "3", "3"),
		row(5, "D", "4", "-1"),
		row(6, "E", "5", "5"),
	}

	for _, workers := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			t.Parallel()

			_, err := NormalizeAll(context.Background(), rows, Options{Workers: workers})
			var mre *MalformedRowError
			require.ErrorAs(t, err, &mre)
			require.Equal(t, 3, mre.Line, "abort reports the earliest malformed row")

			var seen atomic.Int64
			got, err := NormalizeAll(context.Background(), rows, Options{
				Workers:     workers,
				OnMalformed: PolicySkip,
				OnRow:       func() { seen.Add(1) },
			})
			require.NoError(t, err)
			require.Equal(t, int64(len(rows)), seen.Load())
			var names []string
			for _, s := range got.Schools {
				names = append(names, s.Organization.Name)
			}
			require.Equal(t, []string{"A", "C", "E"}, names)
			require.Len(t, got.Skipped, 2)
			require.Equal(t, 3, got.Skipped[0].Line)
			require.Equal(t, 5, got.Skipped[1].Line)
		})
	}
}

func TestNormalizeAll_ManyRowsParallelKeepsOrder(t *testing.T) {
	t.Parallel()

	rows := make([]records.Row, 500)
	for i := range rows {
		rows[i] = row(i+2, fmt.Sprintf("Sekolah %03d", i), fmt.Sprint(i), fmt.Sprint(i))
	}
	got, err := NormalizeAll(context.Background(), rows, Options{Workers: 8})
	require.NoError(t, err)
	require.Len(t, got.Schools, len(rows))
	for i, s := range got.Schools {
		require.Equal(t, i+2, s.Line)
		require.Equal(t, int64(i), s.Data.Stats.Siswa)
	}
}

func TestNormalizeAll_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 4} {
		_, err := NormalizeAll(ctx, []records.Row{row(2, "A", "1", "1")}, Options{Workers: workers})
		require.True(t, errors.Is(err, context.Canceled), "workers=%d: %v", workers, err)
	}
}
