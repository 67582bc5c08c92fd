package repositories

import (
	"strings"
	"testing"

	"loantracker/internal/adapters/persistence/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openMySQLDryRun builds statements with the MySQL dialect without a server
func openMySQLDryRun(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/loantracker?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open mysql dry run: %v", err)
	}
	return db
}

func TestPageLoans_MySQL(t *testing.T) {
	db := openMySQLDryRun(t)

	tests := []struct {
		name       string
		filter     LoanFilter
		wantSuffix string
		notContain string
	}{
		{
			name:       "unpaginated ignores offset",
			filter:     LoanFilter{Offset: 20},
			wantSuffix: "ORDER BY application_date DESC, id DESC",
			notContain: "OFFSET",
		},
		{
			name:       "limit only",
			filter:     LoanFilter{Limit: 10, SortAscending: true},
			wantSuffix: "ORDER BY application_date ASC, id ASC LIMIT 10",
			notContain: "OFFSET",
		},
		{
			name:       "limit and offset",
			filter:     LoanFilter{Limit: 10, Offset: 20},
			wantSuffix: "LIMIT 10 OFFSET 20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var loans []models.Loan
			stmt := db.Model(&models.Loan{}).Scopes(pageLoans(tt.filter)).Find(&loans).Statement
			sql := strings.TrimSpace(stmt.SQL.String())

			if !strings.HasSuffix(sql, tt.wantSuffix) {
				t.Errorf("sql = %q, want suffix %q", sql, tt.wantSuffix)
			}
			if tt.notContain != "" && strings.Contains(sql, tt.notContain) {
				t.Errorf("sql = %q, must not contain %q", sql, tt.notContain)
			}
		})
	}
}
