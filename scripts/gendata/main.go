// Command gendata writes a synthetic telco-style churn dataset so the
// pipeline can be exercised without real customer data. Rows follow the
// schema in examples/schema.yml and the churn label correlates with
// contract type, tenure, and monthly charges.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

var header = []string{
	"customer_id",
	"tenure",
	"monthly_charges",
	"total_charges",
	"contract",
	"internet_service",
	"payment_method",
	"senior_citizen",
	"churn",
}

var (
	contracts = []string{"month-to-month", "one-year", "two-year"}
	internets = []string{"dsl", "fiber", "none"}
	payments  = []string{"bank-transfer", "credit-card", "electronic-check", "mailed-check"}
)

func main() {
	out := flag.String("out", "data/churn.csv", "output CSV path")
	rows := flag.Int("rows", 2000, "number of rows to generate")
	seed := flag.Int64("seed", 69420, "PRNG seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("gendata: %v", err)
		}
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("gendata: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		log.Fatalf("gendata: %v", err)
	}
	for i := 0; i < *rows; i++ {
		if err := w.Write(row(rng, i)); err != nil {
			log.Fatalf("gendata: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("gendata: %v", err)
	}
	log.Printf("wrote %d rows to %s", *rows, *out)
}

func row(rng *rand.Rand, i int) []string {
	tenure := rng.Intn(72)
	monthly := 20 + rng.Float64()*100
	total := monthly * float64(tenure) * (0.9 + rng.Float64()*0.2)
	contract := contracts[rng.Intn(len(contracts))]
	internet := internets[rng.Intn(len(internets))]
	payment := payments[rng.Intn(len(payments))]
	senior := 0
	if rng.Float64() < 0.2 {
		senior = 1
	}

	// Churn odds rise with month-to-month contracts, short tenure, and
	// high monthly charges.
	score := -1.2
	if contract == "month-to-month" {
		score += 1.4
	}
	if internet == "fiber" {
		score += 0.3
	}
	score += (monthly - 70) / 50
	score -= float64(tenure) / 36

	churn := "no"
	if rng.Float64() < 1/(1+math.Exp(-score)) {
		churn = "yes"
	}

	// Fresh accounts have no accumulated charges yet; leave the cell
	// blank so nullable handling gets exercised.
	totalCell := strconv.FormatFloat(total, 'f', 2, 64)
	if tenure == 0 {
		totalCell = ""
	}

	return []string{
		fmt.Sprintf("cust-%05d", i),
		strconv.Itoa(tenure),
		strconv.FormatFloat(monthly, 'f', 2, 64),
		totalCell,
		contract,
		internet,
		payment,
		strconv.Itoa(senior),
		churn,
	}
}
