package transformer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errNegative   = errors.New("negative")
	errFractional = errors.New("not a whole number")
	errNotNumber  = errors.New("not a number")
	errOverflow   = errors.New("out of range")
)

// Count converts a cell to a non-negative integer. Blank cells are 0.
// Integral floats ("120.0", 120.0) are accepted since spreadsheet readers
// often hand numbers back in float form.
func Count(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case string:
		return countFromString(t)
	case int:
		return nonNegative(int64(t))
	case int8:
		return nonNegative(int64(t))
	case int16:
		return nonNegative(int64(t))
	case int32:
		return nonNegative(int64(t))
	case int64:
		return nonNegative(t)
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		return fromUint(t)
	case float32:
		return fromFloat(float64(t))
	case float64:
		return fromFloat(t)
	}
	return 0, fmt.Errorf("%w: unsupported type %T", errNotNumber, v)
}

func countFromString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return nonNegative(n)
	} else if errors.Is(err, strconv.ErrRange) {
		return 0, errOverflow
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotNumber
	}
	return fromFloat(f)
}

func fromFloat(f float64) (int64, error) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, errNotNumber
	case f != math.Trunc(f):
		return 0, errFractional
	case f < 0:
		return 0, errNegative
	case f >= math.MaxInt64:
		return 0, errOverflow
	}
	return int64(f), nil
}

func fromUint(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, errOverflow
	}
	return int64(u), nil
}

func nonNegative(n int64) (int64, error) {
	if n < 0 {
		return 0, errNegative
	}
	return n, nil
}

// Text converts a cell to its text form. nil becomes "", never a sentinel
// like "nan". Integral floats lose their ".0" so numeric NPSN cells read back
// as the code that was typed.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return floatText(t)
	case float32:
		return floatText(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func floatText(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
