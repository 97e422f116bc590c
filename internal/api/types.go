package api

import "time"

type Role string

const (
	RoleGuest Role = "Guest"
	RoleHost  Role = "Host"
)

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`
	BirthDate string `json:"birthDate"`
	Photo     string `json:"photo"`
	IsHost    bool   `json:"isHost"`
}

type UserEdit struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Photo     string `json:"photo"`
	BirthDate string `json:"birthDate"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type Listing struct {
	ID            int64    `json:"id"`
	HostID        string   `json:"hostId"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	City          string   `json:"city"`
	Address       string   `json:"address"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	PricePerNight float64  `json:"pricePerNight"`
	MaxGuests     int      `json:"maxGuests"`
	Amenities     []string `json:"amenities"`
	Images        []string `json:"images"`
	Active        bool     `json:"active"`
}

// ListingItem is the trimmed card shape used by search results.
type ListingItem struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	City          string  `json:"city"`
	PricePerNight float64 `json:"pricePerNight"`
	AverageRating float64 `json:"averageRating"`
	CoverImage    string  `json:"coverImage"`
}

type ListingMetrics struct {
	Views         int64   `json:"views"`
	Bookings      int64   `json:"bookings"`
	AverageRating float64 `json:"averageRating"`
	TotalRevenue  float64 `json:"totalRevenue"`
}

type SearchParams struct {
	City      string
	CheckIn   string
	CheckOut  string
	Guests    int
	MinPrice  float64
	MaxPrice  float64
	Amenities []string
	Page      int
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

type Booking struct {
	ID       int64         `json:"id"`
	Listing  ListingItem   `json:"listing"`
	GuestID  string        `json:"guestId"`
	CheckIn  string        `json:"checkIn"`
	CheckOut string        `json:"checkOut"`
	Guests   int           `json:"guests"`
	Status   BookingStatus `json:"status"`
}

type BookingCreate struct {
	ListingID int64  `json:"listingId"`
	UserID    string `json:"userId"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
	Guests    int    `json:"guests"`
}

type Review struct {
	ID        int64        `json:"id"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"createdAt"`
	Author    User         `json:"author"`
	Reply     *ReviewReply `json:"reply,omitempty"`
}

type ReviewCreate struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewReply struct {
	Message   string    `json:"message"`
	RepliedAt time.Time `json:"repliedAt"`
}
