package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-portal-api/internal/engine"
)

const headerScanWindow = 10

// Record is one normalised enrollment row extracted from a course file.
type Record struct {
	StudentID   engine.StudentID
	StudentName string
	Subject     string
}

// CourseFile is the parsed content of a single uploaded course sheet.
type CourseFile struct {
	Subject string
	Faculty string
	Records []Record
}

// Parser turns heterogeneous course CSV sheets into normalised enrollment
// records and a subject-to-faculty lookup.
type Parser struct {
	logger *zap.Logger
}

// NewParser constructs a parser.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// ParseFile reads one course sheet. The sheets carry a free-form preamble
// before the tabular body: a "Faculty Name" row, an optional subject title
// row, then a header row containing both "Student ID" and "Student Name".
// Files without a recognisable header yield a CourseFile with no records.
func (p *Parser) ParseFile(name string, r io.Reader) (*CourseFile, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	faculty := "Unknown"
	subject := "Unknown"
	headerIdx := -1

	limit := len(lines)
	if limit > headerScanWindow {
		limit = headerScanWindow
	}
	for i := 0; i < limit; i++ {
		line := lines[i]
		if strings.Contains(line, "Faculty Name") {
			parts := strings.Split(line, ",")
			if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
				faculty = strings.TrimSpace(parts[1])
			}
		}
		if strings.Contains(line, "Student ID") && strings.Contains(line, "Student Name") {
			headerIdx = i
			break
		}
	}

	for i := 0; i < headerIdx; i++ {
		line := lines[i]
		if strings.Contains(line, "Faculty Name") || strings.Contains(line, "Group Mail ID") {
			continue
		}
		first := strings.TrimSpace(strings.SplitN(line, ",", 2)[0])
		if first != "" && first != "SN" && first != "Serial No." {
			subject = first
		}
	}
	if subject == "Unknown" {
		subject = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}

	file := &CourseFile{Subject: subject, Faculty: faculty}
	if headerIdx == -1 {
		p.logger.Warn("course sheet has no student header", zap.String("file", name))
		return file, nil
	}

	body := strings.Join(lines[headerIdx:], "\n")
	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	idCol, nameCol := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Student ID":
			idCol = i
		case "Student Name":
			nameCol = i
		}
	}
	if idCol == -1 || nameCol == -1 {
		p.logger.Warn("course sheet header missing required columns", zap.String("file", name))
		return file, nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged trailing rows are common in these sheets.
			p.logger.Debug("skipping malformed row", zap.String("file", name), zap.Error(err))
			continue
		}
		if idCol >= len(row) || nameCol >= len(row) {
			continue
		}
		id := engine.NormalizeStudentID(row[idCol])
		if id == "" || id == "NAN" {
			continue
		}
		file.Records = append(file.Records, Record{
			StudentID:   id,
			StudentName: strings.TrimSpace(row[nameCol]),
			Subject:     subject,
		})
	}
	return file, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
