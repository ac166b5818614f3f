package services

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized: you are not the sponsor of this listing")
	ErrListingNotFound     = errors.New("listing not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyAnnounced    = errors.New("winners already announced")
	ErrListingNotActive    = errors.New("listing is not active")
	ErrListingNotPublished = errors.New("listing is not published")
	ErrListingClosed       = errors.New("listing is closed for submissions")
	ErrIncompleteWinners   = errors.New("please select all winners before publishing the results")
	ErrInvalidPosition     = errors.New("invalid winner position")
	ErrPositionTaken       = errors.New("winner position already taken")
	ErrBonusSpotsFull      = errors.New("all bonus spots are already taken")
	ErrDuplicateSubmission = errors.New("you have already submitted to this listing")
	ErrPriceUnavailable    = errors.New("token price unavailable")
	ErrAlreadyPublished    = errors.New("listing is already published")
)
