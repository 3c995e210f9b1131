package bcfio

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/variant"
)

// ResultHeader names the contigs and user-defined events a ResultWriter's
// stream will report PROB_<EVENT> for, per §6's result BCF header contract.
type ResultHeader struct {
	Contigs []string
	Events  []string
}

// WriteResultHeader writes the VCF header lines for a final call stream:
// one ##INFO line per PROB_<EVENT>/CASE_AF/CONTROL_AF tag plus the data
// column header, per §6.
func WriteResultHeader(w io.Writer, h ResultHeader) error {
	lines := []string{
		`##INFO=<ID=SVTYPE,Number=1,Type=String,Description="Type of structural variant">`,
		`##INFO=<ID=SVLEN,Number=1,Type=Integer,Description="Difference in length between REF and ALT alleles">`,
		`##INFO=<ID=END,Number=1,Type=Integer,Description="End position of the variant">`,
		`##INFO=<ID=EVENT,Number=1,Type=String,Description="Breakend event id">`,
		`##INFO=<ID=MATEID,Number=1,Type=String,Description="Breakend mate id">`,
		`##INFO=<ID=CASE_AF,Number=1,Type=Float,Description="MAP allele frequency in the case sample">`,
		`##INFO=<ID=CONTROL_AF,Number=1,Type=Float,Description="MAP allele frequency in the control sample">`,
	}
	for _, contig := range h.Contigs {
		lines = append(lines, fmt.Sprintf(`##contig=<ID=%s>`, contig))
	}
	sortedEvents := append([]string(nil), h.Events...)
	sort.Strings(sortedEvents)
	for _, ev := range sortedEvents {
		lines = append(lines, fmt.Sprintf(`##INFO=<ID=PROB_%s,Number=1,Type=Integer,Description="PHRED-scaled posterior probability of event %s">`, ev, ev))
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	return err
}

// Call is one output record: a candidate plus its PHRED-scaled posterior
// per user-defined event and, for tumor-normal mode, the MAP allele
// frequencies.
type Call struct {
	Variant    *variant.Variant
	EventPHRED map[string]int // PROB_<EVENT>
	CaseAF     *float64
	ControlAF  *float64
}

// WriteResult writes one Call as a VCF data line, per §6's result BCF
// header contract. INFO tags are emitted in a stable (sorted) order so
// output is reproducible across runs.
func WriteResult(w io.Writer, c Call) error {
	v := c.Variant
	info := make([]string, 0, len(c.EventPHRED)+6)
	if v.Kind == variant.Breakend {
		info = append(info, "SVTYPE=BND")
		if v.MateID != "" {
			info = append(info, "MATEID="+v.MateID)
		}
	} else if v.Kind == variant.Deletion || v.Kind == variant.Duplication || v.Kind == variant.Inversion {
		svtype := map[variant.Kind]string{variant.Deletion: "DEL", variant.Duplication: "DUP", variant.Inversion: "INV"}[v.Kind]
		info = append(info, "SVTYPE="+svtype, fmt.Sprintf("SVLEN=%d", v.Length), fmt.Sprintf("END=%d", v.Start+v.Length))
	}
	if c.CaseAF != nil {
		info = append(info, fmt.Sprintf("CASE_AF=%g", *c.CaseAF))
	}
	if c.ControlAF != nil {
		info = append(info, fmt.Sprintf("CONTROL_AF=%g", *c.ControlAF))
	}
	events := make([]string, 0, len(c.EventPHRED))
	for ev := range c.EventPHRED {
		events = append(events, ev)
	}
	sort.Strings(events)
	for _, ev := range events {
		info = append(info, fmt.Sprintf("PROB_%s=%d", ev, c.EventPHRED[ev]))
	}
	if len(info) == 0 {
		info = append(info, ".")
	}

	alt := string(v.Alt)
	if v.Kind == variant.Breakend {
		alt = v.BreakendSpec
	}
	ref := string(v.Ref)
	if ref == "" {
		ref = "N"
	}
	if alt == "" {
		alt = "."
	}
	_, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t.\t.\t%s\n",
		v.Contig, v.Start+1, v.ID, ref, alt, strings.Join(info, ";"))
	return err
}

// ReadResults reads back a result stream written by WriteResultHeader/
// WriteResult, skipping header lines, and calls emit once per data line in
// file order. Used by internal/filter and internal/tmb's CLI wiring, which
// both operate on an already-called result stream rather than raw
// observations.
func ReadResults(r io.Reader, emit func(Call) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := parseResultLine(line)
		if err != nil {
			return err
		}
		if err := emit(c); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseResultLine(line string) (Call, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return Call{}, errs.NewInput("result line has %d columns, need >= 8", len(fields))
	}
	contig, posField, id, ref, alt, infoField := fields[0], fields[1], fields[2], fields[3], fields[4], fields[7]
	pos, err := strconv.ParseInt(posField, 10, 64)
	if err != nil {
		return Call{}, errs.NewInput("malformed POS %q", posField)
	}
	v := &variant.Variant{Contig: contig, Start: pos - 1, ID: id, Ref: []byte(ref), Alt: []byte(alt)}

	c := Call{Variant: v, EventPHRED: make(map[string]int)}
	for _, kv := range strings.Split(infoField, ";") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch {
		case key == "CASE_AF":
			f, err := strconv.ParseFloat(value, 64)
			if err == nil {
				c.CaseAF = &f
			}
		case key == "CONTROL_AF":
			f, err := strconv.ParseFloat(value, 64)
			if err == nil {
				c.ControlAF = &f
			}
		case key == "SVTYPE":
			switch value {
			case "DEL":
				v.Kind = variant.Deletion
			case "DUP":
				v.Kind = variant.Duplication
			case "INV":
				v.Kind = variant.Inversion
			case "BND":
				v.Kind = variant.Breakend
				v.BreakendSpec = alt
			}
		case key == "SVLEN":
			n, err := strconv.ParseInt(value, 10, 64)
			if err == nil {
				v.Length = n
			}
		case key == "MATEID":
			v.MateID = value
		case strings.HasPrefix(key, "PROB_"):
			n, err := strconv.Atoi(value)
			if err == nil {
				c.EventPHRED[strings.TrimPrefix(key, "PROB_")] = n
			}
		}
	}
	return c, nil
}
