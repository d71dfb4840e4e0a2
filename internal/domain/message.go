package domain

import "time"

// Destination identifies where an outgoing message goes.
type Destination struct {
	Room string // optional channel/room; empty means unset
	User *User  // optional originating user context
}

// HasRoom reports whether a room/channel is designated.
func (d Destination) HasRoom() bool { return d.Room != "" }

// User is the user context attached to a destination.
type User struct {
	ID       string
	Name     string
	Metadata map[string]string
}

// MetadataIconURL is the metadata key holding the user's avatar URL.
const MetadataIconURL = "icon_url"

// IconURL returns the user's icon URL from metadata, or "" when absent.
func (u *User) IconURL() string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	return u.Metadata[MetadataIconURL]
}

// Delivery is the outcome of a single outbound POST.
type Delivery struct {
	Adapter    string
	Channel    string
	StatusCode int // 0 when the request never got a response
	Bytes      int
	Duration   time.Duration
	Error      string
	Timestamp  time.Time
}

// OK reports whether the remote service accepted the message.
func (d Delivery) OK() bool { return d.Error == "" && d.StatusCode == 200 }
