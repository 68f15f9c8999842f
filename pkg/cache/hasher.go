package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Problem is the cache-facing view of an allocation request.
type Problem struct {
	Preferences       [][]int
	SysadminsPerNight int
	MaxUnwantedShifts int
	MinShifts         int
	Horizon           int
}

// ProblemHash returns a 32-character hex digest of the canonical form of p.
// Two problems hash equal exactly when their bounds and preference matrices
// are equal cell by cell.
func ProblemHash(p Problem) string {
	sum := sha256.Sum256(canonical(p))
	return hex.EncodeToString(sum[:16])
}

// canonical: "r:R,u:U,m:M,h:H;" затем строки матрицы битами через ';'
func canonical(p Problem) []byte {
	var b strings.Builder
	b.WriteString("r:")
	b.WriteString(strconv.Itoa(p.SysadminsPerNight))
	b.WriteString(",u:")
	b.WriteString(strconv.Itoa(p.MaxUnwantedShifts))
	b.WriteString(",m:")
	b.WriteString(strconv.Itoa(p.MinShifts))
	b.WriteString(",h:")
	b.WriteString(strconv.Itoa(p.Horizon))
	b.WriteByte(';')

	for _, row := range p.Preferences {
		for _, v := range row {
			switch v {
			case 0:
				b.WriteByte('0')
			case 1:
				b.WriteByte('1')
			default:
				// не-бинарные значения не должны совпадать с 0/1
				b.WriteByte('[')
				b.WriteString(strconv.Itoa(v))
				b.WriteByte(']')
			}
		}
		b.WriteByte(';')
	}
	return []byte(b.String())
}

// AllocationKey builds the cache key for a problem hash.
func AllocationKey(hash string) string {
	return allocationPrefix + hash
}
