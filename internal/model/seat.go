package model

// Seat is an individually sellable grid seat belonging to an event.
// A seat is mutated to occupied exactly once, by the confirmation
// transaction; it is never deleted while a ticket references it.
//
// Fields:
//  ID         – primary key identifier (UUID).
//  EventID    – owning event.
//  Row        – grid row (1-based).
//  Column     – grid column (1-based).
//  IsOccupied – permanent claim marker set at confirmation time.
type Seat struct {
	ID         string `json:"id"`          // seats.id
	EventID    string `json:"event_id"`    // seats.event_id
	Row        int    `json:"row"`         // seats.row_num
	Column     int    `json:"column"`      // seats.col_num
	IsOccupied bool   `json:"is_occupied"` // seats.is_occupied
}
