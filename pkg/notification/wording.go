package notification

import "fmt"

// composeAlert builds the notification wording from the two counts.
// Empty strings mean there is nothing to announce.
func composeAlert(expired, expiring int) (title, body string) {
	switch {
	case expired > 0 && expiring > 0:
		return "Check your items!",
			fmt.Sprintf("%s expired and %s expiring soon.", countItems(expired), countItems(expiring))
	case expired > 0:
		return "Items expired!",
			fmt.Sprintf("%s in your list expired. Tap to clean up.", countItems(expired))
	case expiring > 0:
		return "Expiring soon!",
			fmt.Sprintf("%s expiring in the next %d days.", countItems(expiring), ExpiringWindowDays)
	}
	return "", ""
}

func countItems(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}
