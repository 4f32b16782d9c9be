// Package calendar exports records as an iCalendar (RFC 5545) feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/city-events/internal/event"
)

const (
	prodID    = "-//City Events//city-events//EN"
	uidDomain = "city-events"
	// maxLineOctets is the folding limit for content lines
	maxLineOctets = 75
)

// GenerateICS generates one calendar with an all-day event per dated record.
// Records without a date are skipped. stamp is written as DTSTAMP.
func GenerateICS(records []*event.Record, stamp time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	for _, rec := range records {
		writeEvent(&ics, rec, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeEvent(ics *strings.Builder, rec *event.Record, stamp time.Time) {
	date := rec.Time()
	if date.IsZero() {
		return
	}

	ics.WriteString("BEGIN:VEVENT\r\n")

	// UID - stable across runs since the record ID is derived from the name
	writeLine(ics, fmt.Sprintf("UID:%s@%s", rec.ID, uidDomain))
	writeLine(ics, "DTSTAMP:"+formatICSTime(stamp))

	// All-day event; DTEND is exclusive
	writeLine(ics, "DTSTART;VALUE=DATE:"+formatICSDate(date))
	writeLine(ics, "DTEND;VALUE=DATE:"+formatICSDate(date.AddDate(0, 0, 1)))

	writeLine(ics, "SUMMARY:"+escapeICS(rec.Name))

	description := "Source: " + rec.Source
	if rec.Category != "" {
		description += "\nCategory: " + rec.Category
	}
	writeLine(ics, "DESCRIPTION:"+escapeICS(description))

	if rec.Venue != "" {
		writeLine(ics, "LOCATION:"+escapeICS(rec.Venue))
	}
	if rec.URL != "" {
		writeLine(ics, "URL:"+rec.URL)
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:TRANSPARENT\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// writeLine writes a content line, folding it at maxLineOctets without
// splitting a UTF-8 sequence.
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines carry a leading space
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
