package api

// defaultCookieName is the session cookie used when none is configured.
const defaultCookieName = "token"

// formOverhead is the room left for text fields on top of the image size limit.
const formOverhead = 1 << 20

// Cache-Control header values.
const (
	CacheOneWeek = "public, max-age=604800"
	CacheNoStore = "no-store"
)

// Response messages.
const (
	msgBookRemoved = "Book removed"
	msgUserRemoved = "User removed successfully"
	msgLoggedOut   = "Logged out successfully"
)
