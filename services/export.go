package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"

	"kit-telegram/models"
)

// UserListItem is one row of the admin user listings.
type UserListItem struct {
	ID           int64
	Username     string
	Verified     bool
	PurchaseDate string
}

// ListUsers flattens the ledger into a sorted slice: verified first, newest
// purchase first within each group.
func ListUsers(users map[string]*models.UserRecord, verifiedOnly bool) []UserListItem {
	items := make([]UserListItem, 0, len(users))
	for id, rec := range users {
		if rec == nil {
			continue
		}
		if verifiedOnly && !rec.Verified {
			continue
		}
		uid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		items = append(items, UserListItem{
			ID:           uid,
			Username:     rec.Username,
			Verified:     rec.Verified,
			PurchaseDate: rec.PurchaseDate,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Verified != items[j].Verified {
			return items[i].Verified
		}
		if items[i].PurchaseDate != items[j].PurchaseDate {
			return items[i].PurchaseDate > items[j].PurchaseDate
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Paginate slices the listing into pages, clamping page into [1, pages].
func Paginate(items []UserListItem, page, perPage int) (pageItems []UserListItem, curPage, pages, total int) {
	total = len(items)
	pages = (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return items[start:end], page, pages, total
}

// BuyersCSV renders verified buyers as semicolon-delimited CSV.
func BuyersCSV(users map[string]*models.UserRecord) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	_ = w.Write([]string{"user_id", "username", "purchase_date"})
	for _, item := range ListUsers(users, true) {
		_ = w.Write([]string{strconv.FormatInt(item.ID, 10), item.Username, item.PurchaseDate})
	}
	w.Flush()
	return buf.Bytes()
}

// BroadcastTargets picks the fan-out recipients from the ledger.
func BroadcastTargets(users map[string]*models.UserRecord, verifiedOnly bool) []int64 {
	var targets []int64
	for id, rec := range users {
		if rec == nil {
			continue
		}
		if verifiedOnly && !rec.Verified {
			continue
		}
		uid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		targets = append(targets, uid)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}
