package services

import (
	"fmt"
	"sort"
	"strings"

	"earn-service/models"
)

var winnerCommentTemplates = []string{
	"Congratulations to %s for winning %s! 🎉 Thank you to everyone who participated.",
	"The results are in! 🏆 Huge congratulations to %s on winning %s, and thanks to everyone who submitted.",
}

// PodiumWinners drops bonus winners and orders the rest by position.
// Winners without a position sort last; ties go to the newest submission.
func PodiumWinners(winners []models.Submission) []models.Submission {
	out := make([]models.Submission, 0, len(winners))
	for _, w := range winners {
		if !w.IsBonus() {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].WinnerPosition, out[j].WinnerPosition
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// FormatMentions renders "@a", "@a and @b" or "@a, @b, and @c".
func FormatMentions(usernames []string) string {
	mentions := make([]string, len(usernames))
	for i, u := range usernames {
		mentions[i] = "@" + u
	}
	switch len(mentions) {
	case 0:
		return ""
	case 1:
		return mentions[0]
	case 2:
		return mentions[0] + " and " + mentions[1]
	}
	return strings.Join(mentions[:len(mentions)-1], ", ") + ", and " + mentions[len(mentions)-1]
}

// WinnerComment builds the public announcement comment. pick chooses a
// template index in [0, n). It returns "" when there is no podium winner.
func WinnerComment(listing *models.Listing, winners []models.Submission, pick func(n int) int) string {
	podium := PodiumWinners(winners)
	usernames := make([]string, 0, len(podium))
	for _, w := range podium {
		if w.User.Username != "" {
			usernames = append(usernames, w.User.Username)
		}
	}
	if len(usernames) == 0 {
		return ""
	}
	tmpl := winnerCommentTemplates[pick(len(winnerCommentTemplates))]
	return fmt.Sprintf(tmpl, FormatMentions(usernames), listing.Title)
}
