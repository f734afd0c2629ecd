package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var dapodikHeader = []string{"No", "Nama Sekolah", "NPSN", "BP", "Status", "Last Sync", "Jml Sync", "PD", "Rombel", "Guru", "Pegawai", "R. Kelas", "R. Lab", "R. Perpus"}

func TestResolve_DapodikExport(t *testing.T) {
	t.Parallel()

	m, err := Resolve(dapodikHeader, nil)
	require.NoError(t, err)
	require.Equal(t, Mapping{
		FieldName:    1,
		FieldNPSN:    2,
		FieldBP:      3,
		FieldStatus:  4,
		FieldPD:      7,
		FieldRombel:  8,
		FieldGuru:    9,
		FieldPegawai: 10,
	}, m)
}

func TestResolve_AliasesAndNormalization(t *testing.T) {
	t.Parallel()

	header := []string{" NAMA ", "Nama  Sekolah", "npsn", "Jenjang", "STATUS SEKOLAH", "Jumlah-Siswa", "jml. guru", "Tendik", "Jumlah Rombel"}
	m, err := Resolve(header, nil)
	require.NoError(t, err)
	require.Equal(t, 1, m[FieldName], "first alias wins over a later, shorter alias")
	require.Equal(t, 3, m[FieldBP])
	require.Equal(t, 4, m[FieldStatus])
	require.Equal(t, 5, m[FieldPD])
	require.Equal(t, 6, m[FieldGuru])
	require.Equal(t, 7, m[FieldPegawai])
	require.Equal(t, 8, m[FieldRombel])
}

func TestResolve_Missing(t *testing.T) {
	t.Parallel()

	_, err := Resolve([]string{"Nama Sekolah", "NPSN", "BP", "Status"}, nil)
	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	require.Equal(t, []string{"PD", "Guru", "Pegawai", "Rombel"}, mce.Columns)
	require.Contains(t, err.Error(), "PD, Guru, Pegawai, Rombel")
}

func TestResolve_Override(t *testing.T) {
	t.Parallel()

	header := append([]string{"Satuan Pendidikan"}, dapodikHeader[2:]...)
	_, err := Resolve(header, nil)
	require.Error(t, err)

	m, err := Resolve(header, map[string]string{FieldName: "satuan pendidikan"})
	require.NoError(t, err)
	require.Equal(t, 0, m[FieldName])

	_, err = Resolve(dapodikHeader, map[string]string{FieldNPSN: "Kode"})
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	require.Equal(t, []string{"NPSN"}, mce.Columns)
}

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	require.Equal(t, "nama sekolah", NormalizeHeader("  Nama_Sekolah "))
	require.Equal(t, "r kelas", NormalizeHeader("R. Kelas"))
	require.Equal(t, "jenis", NormalizeHeader("Jénis"))
	require.Equal(t, "", NormalizeHeader("--"))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	c, ok := Lookup(FieldPD)
	require.True(t, ok)
	require.True(t, c.Numeric)
	_, ok = Lookup("alamat")
	require.False(t, ok)
}
