package view

func ToTerseStatus(status string) int {
	if status == "success" {
		return 0
	}
	return 1
}

// ToTerseResult converts ResultSummary to ResultSummaryTerse.
func ToTerseResult(r ResultSummary) ResultSummaryTerse {
	t := ResultSummaryTerse{
		Reference: r.Reference,
		URL:       r.URL,
		Status:    ToTerseStatus(r.Status),
		PageCount: r.PageCount,
		Zoom:      r.Zoom,
		Window:    r.Window,
		Duration:  r.Duration,
	}
	if r.Error != nil {
		t.Error = r.Error.Summary
	}
	return t
}

// ToTerseStats converts Stats to StatsTerse.
func ToTerseStats(s Stats) StatsTerse {
	return StatsTerse{
		Total:   s.Total,
		Success: s.Successful,
		Failed:  s.Failed,
		Pages:   s.TotalPages,
		Time:    s.TotalTimeSeconds,
	}
}
