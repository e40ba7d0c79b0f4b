package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"

	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// DocsService renders booking e-tickets.
type DocsService struct {
	Ledger    BookingService
	BaseURL   string
	RequestID string
	Loader    func(context.Context, domain.RequestContext, int64) (models.BookingView, error)
}

// TicketPDF renders the caller's booking. Access follows GetForCaller.
func (s DocsService) TicketPDF(ctx context.Context, rc domain.RequestContext, bookingID int64) ([]byte, string, error) {
	v, err := s.load(ctx, rc, bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_ticket", fmt.Sprintf("booking_id=%d", bookingID))
	return buildTicketPDF(v, s.ticketURL(v.ID))
}

func (s DocsService) load(ctx context.Context, rc domain.RequestContext, id int64) (models.BookingView, error) {
	if s.Loader != nil {
		return s.Loader(ctx, rc, id)
	}
	return s.Ledger.GetForCaller(ctx, rc, id)
}

func (s DocsService) ticketURL(id int64) string {
	base := strings.TrimRight(s.BaseURL, "/")
	return fmt.Sprintf("%s/ticket/%d", base, id)
}

func buildTicketPDF(v models.BookingView, link string) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, "", fmt.Errorf("qr: %w", err)
	}
	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions("qr", 155, 12, 40, 40, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, link)

	seats := "-"
	if len(v.Seats) > 0 {
		seats = strings.Join(v.Seats, ", ")
	}
	payment := string(v.PaymentStatus)
	if v.PaymentRef != "" {
		payment += " (" + v.PaymentRef + ")"
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking        : #%d", v.ID),
		fmt.Sprintf("Passenger      : %s", safe(v.PassengerName, "-")),
		fmt.Sprintf("Phone          : %s", safe(v.PassengerPhone, "-")),
		fmt.Sprintf("Bus            : %s", safe(v.BusName, "-")),
		fmt.Sprintf("Route          : %s -> %s", safe(v.FromCity, "-"), safe(v.ToCity, "-")),
		fmt.Sprintf("Departure      : %s", safe(utils.FormatDateTime(v.DepartAt), "-")),
		fmt.Sprintf("Arrival        : %s", safe(utils.FormatDateTime(v.ArriveAt), "-")),
		fmt.Sprintf("Journey date   : %s", safe(v.JourneyDate, "-")),
		fmt.Sprintf("Seats          : %d (%s)", v.SeatsBooked, seats),
		fmt.Sprintf("Status         : %s", v.Status),
		fmt.Sprintf("Payment        : %s", payment),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	if len(v.Passengers) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Passengers")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, p := range v.Passengers {
			seat := "-"
			if p.SeatNo != nil {
				seat = *p.SeatNo
			}
			age := ""
			if p.Age != nil {
				age = fmt.Sprintf(", %d", *p.Age)
			}
			pdf.Cell(0, 6, fmt.Sprintf("Seat %-4s %s%s %s", seat, p.Name, age, p.Gender))
			pdf.Ln(6)
		}
	}

	a := v.Amounts
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Fare")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("%d x %s = %s", v.SeatsBooked, utils.FormatRupees(a.FarePerSeat), utils.FormatRupees(a.BaseAmount)))
	pdf.Ln(6)
	if v.CouponCode != "" || a.DiscountAmount.IsPositive() {
		pdf.Cell(0, 6, fmt.Sprintf("Discount (%s): -%s", safe(v.CouponCode, "-"), utils.FormatRupees(a.DiscountAmount)))
		pdf.Ln(6)
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+utils.FormatRupees(a.TotalAmount))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please carry this ticket and a photo ID at boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("TICKET_%d_%s.pdf", v.ID, safeFilenamePart(v.PassengerName))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
