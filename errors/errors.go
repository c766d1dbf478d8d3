package errors

import "fmt"

var (
	ErrUnauthenticated    = fmt.Errorf("authentication required")
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrChatNotFound     = fmt.Errorf("chat not found")
	ErrNotGroupChat     = fmt.Errorf("not a group chat")
	ErrNotChatMember    = fmt.Errorf("not a member of this chat")
	ErrNotChatCreator   = fmt.Errorf("only the chat creator can do this")
	ErrGroupTooSmall    = fmt.Errorf("group must keep at least 3 members")
	ErrGroupLimit       = fmt.Errorf("group members limit reached")
	ErrRequestNotFound  = fmt.Errorf("friend request not found")
	ErrRequestExists    = fmt.Errorf("friend request already sent")
	ErrNotRequestTarget = fmt.Errorf("only the receiver can answer this request")

	ErrNoAttachments       = fmt.Errorf("no attachments provided")
	ErrTooManyAttachments  = fmt.Errorf("attachments are limited to 5 per message")
	ErrInvalidAdminKey     = fmt.Errorf("invalid admin secret key")
	ErrMalformedFrame      = fmt.Errorf("malformed event payload")
	ErrUnknownEvent        = fmt.Errorf("unknown event kind")
	ErrConnectionNotLive   = fmt.Errorf("connection is no longer live")
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrStoreUnavailable    = fmt.Errorf("message store unavailable")
	ErrInvalidDisplayLimit = fmt.Errorf("page must be >= 1")
	ErrEmptyWords          = fmt.Errorf("no words have been found")
)
