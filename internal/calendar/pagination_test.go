package calendar

import (
	"reflect"
	"testing"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	if !reflect.DeepEqual(p.Items, []int{3, 4}) || !p.HasNext || !p.HasPrev || p.Total != 5 {
		t.Fatalf("unexpected page: %+v", p)
	}

	p = Paginate(items, 3, 2)
	if !reflect.DeepEqual(p.Items, []int{5}) || p.HasNext {
		t.Fatalf("unexpected last page: %+v", p)
	}

	p = Paginate(items, 9, 2)
	if len(p.Items) != 0 || p.HasNext || !p.HasPrev {
		t.Fatalf("page past the end: %+v", p)
	}
}

func TestPaginate_Defaults(t *testing.T) {
	items := make([]string, 25)
	p := Paginate(items, 0, 0)
	if p.Page != 1 || p.PageSize != DefaultPageSize || len(p.Items) != DefaultPageSize || p.HasPrev {
		t.Fatalf("unexpected defaults: page=%d size=%d len=%d", p.Page, p.PageSize, len(p.Items))
	}
}

func TestBoundsAndFromQuery(t *testing.T) {
	limit, offset := Bounds(3, 4)
	if limit != 4 || offset != 8 {
		t.Fatalf("Bounds(3, 4) = %d, %d", limit, offset)
	}
	if limit, offset = Bounds(0, 0); limit != DefaultPageSize || offset != 0 {
		t.Fatalf("Bounds defaults = %d, %d", limit, offset)
	}

	p := FromQuery([]string{"e", "f"}, 2, 2, 5)
	if !p.HasNext || !p.HasPrev || p.Total != 5 {
		t.Fatalf("unexpected middle page: %+v", p)
	}
	p = FromQuery([]string{"e"}, 3, 2, 5)
	if p.HasNext {
		t.Fatalf("last page reports more: %+v", p)
	}
}
