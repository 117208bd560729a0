package parsers

import (
	"testing"

	"github.com/username/wealthfolio/src/models"
)

func txn(id, date string) models.Transaction {
	return models.Transaction{ID: id, Date: date, Code: "2330"}
}

func TestMergeByIDPrimaryWinsOnDuplicates(t *testing.T) {
	primary := []models.Transaction{{ID: "a", Date: "2025/01/02", Code: "2330", Price: 100}}
	secondary := []models.Transaction{{ID: "a", Date: "2025/01/02", Code: "2330", Price: 999}}

	merged := MergeByID(primary, secondary)
	if len(merged) != 1 {
		t.Fatalf("merged %d entries, want 1", len(merged))
	}
	if merged[0].Price != 100 {
		t.Errorf("price = %g, want the primary copy to win", merged[0].Price)
	}
}

func TestMergeByIDUnionsAndSortsNewestFirst(t *testing.T) {
	primary := []models.Transaction{txn("a", "2025/01/02"), txn("b", "2025/01/05")}
	secondary := []models.Transaction{txn("c", "2025/01/03"), txn("a", "2025/01/01")}

	merged := MergeByID(primary, secondary)
	if len(merged) != 3 {
		t.Fatalf("merged %d entries, want 3", len(merged))
	}
	wantOrder := []string{"b", "c", "a"}
	for i, want := range wantOrder {
		if merged[i].ID != want {
			t.Errorf("merged[%d] = %s, want %s", i, merged[i].ID, want)
		}
	}
}

func TestMergeByIDDateTiesKeepPrimaryFirst(t *testing.T) {
	primary := []models.Transaction{txn("p", "2025/01/02")}
	secondary := []models.Transaction{txn("s", "2025/01/02")}

	merged := MergeByID(primary, secondary)
	if merged[0].ID != "p" || merged[1].ID != "s" {
		t.Errorf("tie order = %s, %s; want primary then secondary", merged[0].ID, merged[1].ID)
	}
}

func TestMergeByIDEmptyInputs(t *testing.T) {
	if got := MergeByID(nil, nil); len(got) != 0 {
		t.Errorf("merge of nothing = %v, want empty", got)
	}
	only := []models.Transaction{txn("a", "2025/01/01")}
	if got := MergeByID(nil, only); len(got) != 1 {
		t.Errorf("merge with empty primary = %v, want the secondary list", got)
	}
}
