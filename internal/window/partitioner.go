package window

import (
	"encoding/binary"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/constraints"

	"github.com/paveg/windowagg/internal/errors"
	"github.com/paveg/windowagg/internal/table"
	"github.com/paveg/windowagg/internal/validation"
)

// Group is one partition: the rows sharing a key value, in ascending position order
type Group struct {
	// KeyRow is the first row of the group; its key value represents the group
	KeyRow int
	// Missing is set on the group collecting missing keys
	Missing bool
	Rows    []int
}

// Partitions is the result of partitioning a table
type Partitions struct {
	// Groups are ordered by the first occurrence of their key
	Groups []Group
	// Dropped lists the rows MissingKeyDrop left out of every group
	Dropped []int
}

// Rows returns the number of rows assigned to a group
func (p Partitions) Rows() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Rows)
	}
	return n
}

// Partition groups the rows of a table by the value of key.
// A nil key puts every row into a single group.
func Partition(key table.Column, rowCount int, policy MissingKeyPolicy) (Partitions, error) {
	const op = "Partition"

	if key == nil {
		if rowCount == 0 {
			return Partitions{}, nil
		}
		rows := make([]int, rowCount)
		for i := range rows {
			rows[i] = i
		}
		return Partitions{Groups: []Group{{KeyRow: 0, Rows: rows}}}, nil
	}

	if err := validation.NewKeyLengthValidator(rowCount, key.Len(), op, key.Name()).Validate(); err != nil {
		return Partitions{}, err
	}

	arr := key.Array()
	defer arr.Release()

	keys, err := newKeyColumn(op, key.Name(), arr)
	if err != nil {
		return Partitions{}, err
	}

	var result Partitions
	buckets := make(map[uint64][]int)
	missingGroup := -1

	for row := range rowCount {
		if keys.missing(row) {
			if policy == MissingKeyDrop {
				result.Dropped = append(result.Dropped, row)
				continue
			}
			if missingGroup < 0 {
				missingGroup = len(result.Groups)
				result.Groups = append(result.Groups, Group{KeyRow: row, Missing: true})
			}
			result.Groups[missingGroup].Rows = append(result.Groups[missingGroup].Rows, row)
			continue
		}

		h := keys.hash(row)
		found := -1
		for _, gi := range buckets[h] {
			if keys.equal(result.Groups[gi].KeyRow, row) {
				found = gi
				break
			}
		}
		if found < 0 {
			found = len(result.Groups)
			result.Groups = append(result.Groups, Group{KeyRow: row})
			buckets[h] = append(buckets[h], found)
		}
		result.Groups[found].Rows = append(result.Groups[found].Rows, row)
	}

	return result, nil
}

// keyColumn gives the partitioner hashing and equality over one key array
type keyColumn struct {
	missing func(i int) bool
	hash    func(i int) uint64
	equal   func(i, j int) bool
}

func newKeyColumn(op, column string, arr arrow.Array) (keyColumn, error) {
	switch a := arr.(type) {
	case *array.Int64:
		return numericKeys[int64](a), nil
	case *array.Int32:
		return numericKeys[int32](a), nil
	case *array.Float64:
		return numericKeys[float64](a), nil
	case *array.Float32:
		return numericKeys[float32](a), nil
	case *array.String:
		return keyColumn{
			missing: a.IsNull,
			hash:    func(i int) uint64 { return xxhash.Sum64String(a.Value(i)) },
			equal:   func(i, j int) bool { return a.Value(i) == a.Value(j) },
		}, nil
	case *array.Boolean:
		return keyColumn{
			missing: a.IsNull,
			hash: func(i int) uint64 {
				if a.Value(i) {
					return hashBits(1)
				}
				return hashBits(0)
			},
			equal: func(i, j int) bool { return a.Value(i) == a.Value(j) },
		}, nil
	default:
		return keyColumn{}, errors.NewUnsupportedTypeError(op, column, arr.DataType().String())
	}
}

// numericKeys compares keys by value: -0 equals 0 and NaN counts as missing
func numericKeys[T constraints.Integer | constraints.Float](a valueArray[T]) keyColumn {
	return keyColumn{
		missing: func(i int) bool {
			if a.IsNull(i) {
				return true
			}
			v := a.Value(i)
			return v != v
		},
		hash: func(i int) uint64 {
			v := float64(a.Value(i))
			if v == 0 {
				v = 0
			}
			// Integers beyond 2^53 may share a hash; equal settles them.
			return hashBits(math.Float64bits(v))
		},
		equal: func(i, j int) bool { return a.Value(i) == a.Value(j) },
	}
}

func hashBits(bits uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], bits)
	return xxhash.Sum64(buf[:])
}
