package cboe

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidContractLabel is returned when a futures label such as "K (May 04)" cannot be parsed.
var ErrInvalidContractLabel = errors.New("invalid contract label")

// ContractMonth keys a VIX futures contract by its nominal month as yyyymm
// (May 2004 is 200405). Keys order the same way the contracts expire.
type ContractMonth int

func NewContractMonth(year int, month time.Month) ContractMonth {
	return ContractMonth(year*100 + int(month))
}

func (c ContractMonth) Year() int         { return int(c) / 100 }
func (c ContractMonth) Month() time.Month { return time.Month(int(c) % 100) }

// Code returns the exchange symbol suffix, e.g. "K04".
func (c ContractMonth) Code() string {
	return fmt.Sprintf("%s%02d", MonthCode(c.Month()), c.Year()%100)
}

// Label renders the label used in the CFE history files, e.g. "K (May 04)".
func (c ContractMonth) Label() string {
	return fmt.Sprintf("%s (%s %02d)", MonthCode(c.Month()), c.Month().String()[:3], c.Year()%100)
}

func (c ContractMonth) String() string { return strconv.Itoa(int(c)) }

// FileName is the CFE per-contract history file, e.g. "CFE_K04_VX.csv".
func (c ContractMonth) FileName() string {
	return "CFE_" + c.Code() + "_VX.csv"
}

var monthCodes = [...]string{"", "F", "G", "H", "J", "K", "M", "N", "Q", "U", "V", "X", "Z"}

// MonthCode maps January..December to F, G, H, J, K, M, N, Q, U, V, X, Z.
func MonthCode(month time.Month) string {
	if month < time.January || month > time.December {
		return ""
	}
	return monthCodes[month]
}

// MonthForCode is the inverse of MonthCode.
func MonthForCode(code string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		if monthCodes[m] == code {
			return m, true
		}
	}
	return 0, false
}

var (
	labelPattern    = regexp.MustCompile(`([FGHJKMNQUVXZ])\s+\([a-zA-Z]{3}\s+(\d{2})\)`)
	fileNamePattern = regexp.MustCompile(`^CFE_([FGHJKMNQUVXZ])(\d{2})_VX\.csv$`)
)

// ParseContractLabel converts "K (May 04)" into 200405. Two-digit years are 20yy.
func ParseContractLabel(label string) (ContractMonth, error) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidContractLabel, label)
	}
	return fromCodeAndYear(m[1], m[2])
}

// ParseFileName converts "CFE_K04_VX.csv" into 200405.
func ParseFileName(name string) (ContractMonth, error) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, fmt.Errorf("%w: file %q", ErrInvalidContractLabel, name)
	}
	return fromCodeAndYear(m[1], m[2])
}

func fromCodeAndYear(code, yy string) (ContractMonth, error) {
	month, ok := MonthForCode(code)
	if !ok {
		return 0, fmt.Errorf("%w: month code %q", ErrInvalidContractLabel, code)
	}
	suffix, err := strconv.Atoi(yy)
	if err != nil {
		return 0, fmt.Errorf("%w: year %q", ErrInvalidContractLabel, yy)
	}
	return NewContractMonth(2000+suffix, month), nil
}
