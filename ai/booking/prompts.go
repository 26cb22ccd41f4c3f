package booking

import "github.com/hrygo/agentflow/ai/llm"

// Sampling temperatures per step. Classification and extraction run cold;
// confirmation text gets a little room.
const (
	classifyTemperature = 0.0
	extractTemperature  = 0.0
	confirmTemperature  = 0.0
)

const classifySystemPrompt = `Determine if the given text requests booking a flight ticket.
Also determine whether it is a new booking or a modification of an existing booking.
Return the output as JSON.`

const extractSystemPrompt = `%s
Extract ticket information: source, destination, departure date and return date, as JSON.
Dates must use the YYYY-MM-DD format.
If no source is mentioned, set it to an empty string.
If no destination is mentioned, set it to an empty string.
If no departure date or return date is mentioned, set it to an empty string.
Do not invent dates that are not specified in the input.
If the input mentions a ticket ID, set ticket_id to it, otherwise set ticket_id to 0.`

const modifySystemPrompt = `%s
Existing booking info: %s
Modify the source, destination and dates in the existing booking info based on the new input.
Retain the existing values if no change has been requested for those attributes.
Dates must use the YYYY-MM-DD format.
Return as JSON.`

const confirmSystemPrompt = `Generate a friendly confirmation message for a flight ticket booking.
Include all relevant details.
Write the confirmation message based on the action type.
action_type = %s.
Include the ticket ID in the confirmation message.
Return the output as JSON.`

const hotelSystemPrompt = `%s
Ticket ID is %d.
Based on the user input, extract the destination, departure date and return date.
Use the departure date as the check-in date and the return date as the check-out date.
The check-out date should be at least 1 day after the check-in date.
The check-out date should be the same as the return date if mentioned.
Generate a confirmation message for the hotel booking in a friendly manner.
The confirmation message should contain the destination, check-in date, check-out date and ticket ID.
Return the output as JSON.`

const tripSystemPrompt = `%s
Generate a single confirmation message covering the whole trip in a friendly manner.
The confirmation message should present the information in the following order:
<a-friendly-greeting>
**Ticket ID**
Ticket ID: <ticket_id>
**Flight ticket details**
Source: <source>
Destination: <destination>
Departure Date: <departure_date>
Return Date: <return_date>
**Hotel booking details**
Destination: <destination>
Check-in Date: <check_in_date>
Check-out Date: <check_out_date>
<a-friendly-closing-remark>`

var checkSchema = llm.Object(map[string]*llm.JSONSchema{
	"description":       llm.String("Raw description of the user input"),
	"is_ticket_booking": llm.Boolean("Whether this text describes booking a flight or airline ticket"),
	"new_or_modify":     llm.StringEnum("Whether this is a new booking or a modification of an existing booking", "new", "modify"),
})

var ticketInfoSchema = llm.Object(map[string]*llm.JSONSchema{
	"source":         llm.String("Departure location of the flight, empty string if not mentioned"),
	"destination":    llm.String("Destination location of the flight, empty string if not mentioned"),
	"departure_date": llm.String("Departure date of the flight in YYYY-MM-DD format, empty string if not mentioned"),
	"return_date":    llm.String("Date when the trip ends in YYYY-MM-DD format, empty string if not mentioned"),
	"ticket_id":      {Type: "integer", Description: "Ticket ID for the booking, 0 if not mentioned"},
})

var confirmationSchema = llm.Object(map[string]*llm.JSONSchema{
	"confirmation_message": llm.String("A confirmation message for the ticket booking that includes the source, destination, dates and ticket ID"),
})

var hotelConfirmationSchema = llm.Object(map[string]*llm.JSONSchema{
	"hotel_confirmation_message": llm.String("Confirmation message for the hotel booking"),
})

var tripConfirmationSchema = llm.Object(map[string]*llm.JSONSchema{
	"combined_confirmation_message": llm.String("Confirmation message for the entire trip including both flight and hotel booking"),
})
