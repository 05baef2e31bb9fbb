package bills

import (
	"context"
	"sort"

	"billed/internal/core"
)

// ListErrorMessage is the text shown on the bills list when List fails.
// Errors from the bills service are shown as reported ("Erreur 404").
func ListErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if re, ok := core.IsRemote(err); ok {
		return re.Error()
	}
	return err.Error()
}

// Row is one line of the bills list.
type Row struct {
	ID       string
	Type     string
	Name     string
	Date     string
	Amount   string
	Status   string
	FileURL  string
	FileName string
}

// ListPage is what the bills list renders: either rows or an error.
type ListPage struct {
	Rows  []Row
	Error string
}

// LoadListPage fetches the bills visible to session, newest first.
// Employees see their own bills, admins see all of them.
func LoadListPage(ctx context.Context, svc Service, session core.Session) (ListPage, error) {
	email := session.Email
	if session.Type == core.UserAdmin {
		email = ""
	}
	list, err := svc.List(ctx, email)
	if err != nil {
		return ListPage{Error: ListErrorMessage(err)}, err
	}
	return ListPage{Rows: Rows(list)}, nil
}

// Rows sorts bills by date, newest first, and formats them for display.
func Rows(list []core.Bill) []Row {
	sorted := append([]core.Bill(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	rows := make([]Row, len(sorted))
	for i, b := range sorted {
		rows[i] = Row{
			ID:       b.ID,
			Type:     b.Type,
			Name:     b.Name,
			Date:     core.FormatBillDate(b.Date),
			Amount:   b.Amount.String(),
			Status:   b.Status.Label(),
			FileURL:  b.FileURL,
			FileName: b.FileName,
		}
	}
	return rows
}
