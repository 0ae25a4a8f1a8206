// Package layout holds the static per-line train layouts used to
// provision seats.  Each Seoul subway line runs a fixed car count and
// a fixed number of priority seats per car, so the tables are compiled
// in rather than loaded from configuration.
package layout

import (
	"fmt"

	"github.com/iamjiwoo/subway-priority-seat/internal/model"
)

// LineLayout describes the seat arrangement of one line's trains.
type LineLayout struct {
	Line          string
	CarsPerTrain  uint32
	SeatsPerCar   uint32
	PrioritySeats []uint32 // seat numbers within each car
}

// lineLayouts covers the lines the service operates on.  Seat numbers
// are 1-based within a car; priority seats sit at the car ends next to
// the doors.
var lineLayouts = map[string]LineLayout{
	"1": {Line: "1", CarsPerTrain: 10, SeatsPerCar: 54, PrioritySeats: []uint32{1, 2, 53, 54}},
	"2": {Line: "2", CarsPerTrain: 10, SeatsPerCar: 54, PrioritySeats: []uint32{1, 2, 53, 54}},
	"3": {Line: "3", CarsPerTrain: 10, SeatsPerCar: 54, PrioritySeats: []uint32{1, 2, 53, 54}},
	"4": {Line: "4", CarsPerTrain: 10, SeatsPerCar: 54, PrioritySeats: []uint32{1, 2, 53, 54}},
	"5": {Line: "5", CarsPerTrain: 8, SeatsPerCar: 48, PrioritySeats: []uint32{1, 2, 47, 48}},
	"6": {Line: "6", CarsPerTrain: 8, SeatsPerCar: 48, PrioritySeats: []uint32{1, 2, 47, 48}},
	"7": {Line: "7", CarsPerTrain: 8, SeatsPerCar: 48, PrioritySeats: []uint32{1, 2, 47, 48}},
	"8": {Line: "8", CarsPerTrain: 6, SeatsPerCar: 48, PrioritySeats: []uint32{1, 2, 47, 48}},
	"9": {Line: "9", CarsPerTrain: 6, SeatsPerCar: 48, PrioritySeats: []uint32{1, 2, 47, 48}},
}

// ByLine returns the layout for a line, or an error for lines the
// service does not cover.
func ByLine(line string) (LineLayout, error) {
	l, ok := lineLayouts[line]
	if !ok {
		return LineLayout{}, fmt.Errorf("no layout for line %q", line)
	}
	return l, nil
}

// LineOfTrain derives the line from a train number.  Seoul train
// numbers carry the line as their first digit (e.g. 2344 runs on
// line 2).
func LineOfTrain(trainNumber string) (string, error) {
	if trainNumber == "" {
		return "", fmt.Errorf("empty train number")
	}
	return trainNumber[:1], nil
}

// GenerateSeats expands a train number into the full set of seat
// records per its line layout, all starting out available.  The result
// feeds SeatRepo.CreateBulk during provisioning.
func GenerateSeats(trainNumber string) ([]model.Seat, error) {
	line, err := LineOfTrain(trainNumber)
	if err != nil {
		return nil, err
	}
	l, err := ByLine(line)
	if err != nil {
		return nil, err
	}
	priority := make(map[uint32]bool, len(l.PrioritySeats))
	for _, n := range l.PrioritySeats {
		priority[n] = true
	}
	seats := make([]model.Seat, 0, int(l.CarsPerTrain)*int(l.SeatsPerCar))
	for car := uint32(1); car <= l.CarsPerTrain; car++ {
		for n := uint32(1); n <= l.SeatsPerCar; n++ {
			seatType := model.SeatTypeStandard
			if priority[n] {
				seatType = model.SeatTypePriority
			}
			seats = append(seats, model.Seat{
				ID:          model.SeatID(trainNumber, car, n),
				TrainNumber: trainNumber,
				CarNumber:   car,
				SeatNumber:  n,
				SeatType:    seatType,
				Status:      model.SeatAvailable,
			})
		}
	}
	return seats, nil
}
