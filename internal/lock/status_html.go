package lock

import "html/template"

const (
	hardBanner = `<div style="background-color: #f8d7da; color: #721c24; padding: 10px; border-radius: 5px; font-weight: bold; border: 1px solid #f5c6cb;">` +
		`<i class="fa fa-lock"></i> CUSTOMER IS HARD LOCKED (50+ DAYS OVERDUE)</div>`
	softBanner = `<div style="background-color: #fff3cd; color: #856404; padding: 10px; border-radius: 5px; font-weight: bold; border: 1px solid #ffeeba;">` +
		`<i class="fa fa-exclamation-triangle"></i> CUSTOMER IS SOFT LOCKED (40+ DAYS OVERDUE) SEE ACCOUNTING.</div>`
	mutedBanner = `<span class="text-muted">Locked</span>`
)

// StatusHTML renders the banner shown on a locked customer. A nil day count
// is treated as zero.
func StatusHTML(days *int) template.HTML {
	d := 0
	if days != nil {
		d = *days
	}
	switch TierForDays(d) {
	case TierHard:
		return template.HTML(hardBanner)
	case TierSoft:
		return template.HTML(softBanner)
	default:
		return template.HTML(mutedBanner)
	}
}
