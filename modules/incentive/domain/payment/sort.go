package payment

import "sort"

func sortSummaries(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		if c := s[i].Total.Cmp(s[j].Total); c != 0 {
			return c > 0
		}
		return s[i].EmployeeID.String() < s[j].EmployeeID.String()
	})
}
