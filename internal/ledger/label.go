package ledger

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var transLabelPattern = regexp.MustCompile(`^TRANS-(\d+)$`)

// labelPayments assigns a sequential TRANS-NNN label to every payment that
// lacks a readable reference. Numbering follows ascending chronological
// order with ties broken by input position, and continues after the highest
// label already present so existing labels are never reissued. Records
// carrying any other identifier keep it as-is.
func labelPayments(payments []Record) []Record {
	out := make([]Record, len(payments))
	copy(out, payments)

	next := 1
	var unlabeled []int
	for i, p := range out {
		if m := transLabelPattern.FindStringSubmatch(p.Number); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= next {
				next = n + 1
			}
			continue
		}
		if p.Number == "" {
			unlabeled = append(unlabeled, i)
		}
	}

	sort.SliceStable(unlabeled, func(a, b int) bool {
		return out[unlabeled[a]].Timestamp.Before(out[unlabeled[b]].Timestamp)
	})
	for _, idx := range unlabeled {
		out[idx].Number = fmt.Sprintf("TRANS-%03d", next)
		next++
	}
	return out
}

// labelMergedPayments labels the payment records inside a merged set in
// place. It runs after dedupe so local payments that were never persisted
// with a reference share one numbering sequence with remote ones.
func labelMergedPayments(records []Record) {
	var idx []int
	var payments []Record
	for i, rec := range records {
		if rec.Kind == KindPayment {
			idx = append(idx, i)
			payments = append(payments, rec)
		}
	}
	if len(payments) == 0 {
		return
	}
	labeled := labelPayments(payments)
	for j, i := range idx {
		records[i].Number = labeled[j].Number
	}
}
