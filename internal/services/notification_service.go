package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/metrics"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	log "github.com/sirupsen/logrus"
)

const bookingEventsTopic = "booking.events"

type bookingEventPayload struct {
	Event     models.BookingEvent `json:"event"`
	BookingID int64               `json:"booking_id"`
}

// Dispatcher publishes booking events to an in-process topic. A router
// consumes them and mails the booking owner. Nothing here reports back to
// the operation that raised the event.
type Dispatcher struct {
	Bookings BookingStore
	Mailer   Mailer
	BaseURL  string

	pubSub *gochannel.GoChannel
	router *message.Router
}

func NewDispatcher(bookings BookingStore, mailer Mailer, baseURL string) (*Dispatcher, error) {
	logger := logrusAdapter{entry: log.WithField("module", "NOTIFY")}
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		Bookings: bookings,
		Mailer:   mailer,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		pubSub:   pubSub,
		router:   router,
	}
	router.AddMiddleware(middleware.Recoverer)
	router.AddNoPublisherHandler("booking_notifications", bookingEventsTopic, pubSub, d.handle)
	return d, nil
}

// Notify queues the event. Publish errors are logged and dropped.
func (d *Dispatcher) Notify(ctx context.Context, event models.BookingEvent, bookingID int64) {
	payload, err := json.Marshal(bookingEventPayload{Event: event, BookingID: bookingID})
	if err != nil {
		metrics.Notification(string(event), "failed")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := d.pubSub.Publish(bookingEventsTopic, msg); err != nil {
		utils.LogError("", "notify", "publish", err)
		metrics.Notification(string(event), "failed")
	}
}

// Run consumes events until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.router.Run(ctx)
}

// Running is closed once the consumer is subscribed.
func (d *Dispatcher) Running() chan struct{} {
	return d.router.Running()
}

func (d *Dispatcher) Close() error {
	return errors.Join(d.router.Close(), d.pubSub.Close())
}

func (d *Dispatcher) handle(msg *message.Message) error {
	var p bookingEventPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		utils.LogError("", "notify", "decode", err)
		return nil
	}
	d.Deliver(msg.Context(), p.Event, p.BookingID)
	return nil
}

// Deliver resolves the owner email and sends one mail. A booking without an
// owner email is skipped.
func (d *Dispatcher) Deliver(ctx context.Context, event models.BookingEvent, bookingID int64) {
	v, err := d.Bookings.Snapshot(ctx, bookingID)
	if err != nil {
		utils.LogError("", "notify", "snapshot", err)
		metrics.Notification(string(event), "failed")
		return
	}
	if v.OwnerEmail == "" || d.Mailer == nil {
		metrics.Notification(string(event), "skipped")
		return
	}
	subject, body := d.compose(event, v)
	if err := d.Mailer.Send(ctx, v.OwnerEmail, subject, body); err != nil {
		utils.LogError("", "notify", "send", err)
		metrics.Notification(string(event), "failed")
		return
	}
	utils.LogEvent("", "notify", "send", fmt.Sprintf("booking_id=%d event=%s", bookingID, event))
	metrics.Notification(string(event), "sent")
}

var eventSubjects = map[models.BookingEvent]string{
	models.EventCreated:   "Your booking is created",
	models.EventConfirmed: "Your booking is confirmed",
	models.EventCancelled: "Your booking is cancelled",
	models.EventPaid:      "Payment received",
	models.EventRefunded:  "Your refund is processed",
	models.EventUnpaid:    "Payment marked unpaid",
}

func (d *Dispatcher) compose(event models.BookingEvent, v models.BookingView) (string, string) {
	subject, ok := eventSubjects[event]
	if !ok {
		subject = "Booking update"
	}
	subject = fmt.Sprintf("%s - Ticket #%d", subject, v.ID)

	payment := string(v.PaymentStatus)
	if v.PaymentRef != "" {
		payment += " (Ref: " + v.PaymentRef + ")"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", v.PassengerName)
	fmt.Fprintf(&b, "Update for booking #%d: %s.\n", v.ID, event)
	fmt.Fprintf(&b, "Bus: %s\n", v.BusName)
	fmt.Fprintf(&b, "Route: %s -> %s\n", v.FromCity, v.ToCity)
	fmt.Fprintf(&b, "Departure: %s\n", utils.FormatDateTime(v.DepartAt))
	fmt.Fprintf(&b, "Seats: %d\n", v.SeatsBooked)
	fmt.Fprintf(&b, "Payment: %s\n", payment)
	if d.BaseURL != "" {
		fmt.Fprintf(&b, "\nView your ticket: %s/ticket/%d\n", d.BaseURL, v.ID)
	}
	return subject, b.String()
}

// logrusAdapter routes watermill's own logging through logrus.
type logrusAdapter struct {
	entry *log.Entry
}

func (l logrusAdapter) fields(f watermill.LogFields) *log.Entry {
	return l.entry.WithFields(log.Fields(f))
}

func (l logrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.fields(fields).WithError(err).Error(msg)
}

func (l logrusAdapter) Info(msg string, fields watermill.LogFields) {
	l.fields(fields).Debug(msg)
}

func (l logrusAdapter) Debug(msg string, fields watermill.LogFields) {
	l.fields(fields).Debug(msg)
}

func (l logrusAdapter) Trace(msg string, fields watermill.LogFields) {
	l.fields(fields).Trace(msg)
}

func (l logrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return logrusAdapter{entry: l.fields(fields)}
}
