package cart

import (
	"sort"
	"testing"

	"storefront-client/internal/model"
)

func lines(pairs ...[2]int) []model.CartLine {
	out := make([]model.CartLine, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, model.CartLine{ID: p[0], Quantity: p[1]})
	}
	return out
}

func TestDiffLines(t *testing.T) {
	tests := []struct {
		name        string
		current     []model.CartLine
		desired     []model.CartLine
		wantRemove  []int
		wantUpdate  []QuantityChange
		wantAddIDs  []int
	}{
		{
			name:    "identical carts need nothing",
			current: lines([2]int{1, 2}, [2]int{2, 1}),
			desired: lines([2]int{1, 2}, [2]int{2, 1}),
		},
		{
			name:       "add new line",
			current:    lines([2]int{1, 1}),
			desired:    lines([2]int{1, 1}, [2]int{5, 3}),
			wantAddIDs: []int{5},
		},
		{
			name:       "remove dropped line",
			current:    lines([2]int{1, 1}, [2]int{2, 2}),
			desired:    lines([2]int{1, 1}),
			wantRemove: []int{2},
		},
		{
			name:       "quantity change",
			current:    lines([2]int{1, 1}),
			desired:    lines([2]int{1, 4}),
			wantUpdate: []QuantityChange{{ID: 1, From: 1, To: 4}},
		},
		{
			name:       "zero desired quantity means removal",
			current:    lines([2]int{1, 2}),
			desired:    lines([2]int{1, 0}),
			wantRemove: []int{1},
		},
		{
			name:       "empty desired empties the cart",
			current:    lines([2]int{1, 1}, [2]int{2, 2}),
			desired:    nil,
			wantRemove: []int{1, 2},
		},
		{
			name:       "everything at once",
			current:    lines([2]int{1, 1}, [2]int{2, 2}),
			desired:    lines([2]int{2, 5}, [2]int{3, 1}),
			wantRemove: []int{1},
			wantUpdate: []QuantityChange{{ID: 2, From: 2, To: 5}},
			wantAddIDs: []int{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := DiffLines(tt.current, tt.desired)

			if len(tt.wantRemove)+len(tt.wantUpdate)+len(tt.wantAddIDs) == 0 {
				if !diff.IsEmpty() {
					t.Fatalf("want empty diff, got %+v", diff)
				}
				return
			}

			gotRemove := append([]int(nil), diff.ToRemove...)
			sort.Ints(gotRemove)
			if !equalInts(gotRemove, tt.wantRemove) {
				t.Errorf("ToRemove = %v, want %v", gotRemove, tt.wantRemove)
			}

			if len(diff.ToUpdate) != len(tt.wantUpdate) {
				t.Errorf("ToUpdate = %v, want %v", diff.ToUpdate, tt.wantUpdate)
			} else {
				for i, want := range tt.wantUpdate {
					if diff.ToUpdate[i] != want {
						t.Errorf("ToUpdate[%d] = %+v, want %+v", i, diff.ToUpdate[i], want)
					}
				}
			}

			gotAdd := make([]int, 0, len(diff.ToAdd))
			for _, line := range diff.ToAdd {
				gotAdd = append(gotAdd, line.ID)
			}
			sort.Ints(gotAdd)
			if !equalInts(gotAdd, tt.wantAddIDs) {
				t.Errorf("ToAdd IDs = %v, want %v", gotAdd, tt.wantAddIDs)
			}
		})
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
