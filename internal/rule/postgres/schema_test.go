package postgres_test

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/finance-tracker/db/migrations"
	ruleDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/rule"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	rulePostgres "github.com/frahmantamala/finance-tracker/internal/rule/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// rulesDDL pulls the categorization_rules statements out of the goose
// migration and rewrites the postgres-only bits for sqlite.
func rulesDDL() []string {
	raw, err := fs.ReadFile(migrations.FS, "00001_init_schema.sql")
	Expect(err).NotTo(HaveOccurred())
	sql := string(raw)

	start := strings.Index(sql, "CREATE TABLE categorization_rules")
	Expect(start).To(BeNumerically(">=", 0))
	end := strings.Index(sql[start:], "CREATE TABLE uploads")
	Expect(end).To(BeNumerically(">", 0))

	section := strings.NewReplacer(
		"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"TIMESTAMPTZ", "DATETIME",
		"NOW()", "CURRENT_TIMESTAMP",
	).Replace(sql[start : start+end])

	var stmts []string
	for _, stmt := range strings.Split(section, ";") {
		if strings.TrimSpace(stmt) != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func openMigratedDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())
	for _, stmt := range rulesDDL() {
		Expect(db.Exec(stmt).Error).To(Succeed(), stmt)
	}
	return db
}

var _ = Describe("RuleRepository on the migration schema", func() {
	var (
		db   *gorm.DB
		repo rule.RepositoryAPI
		uid  int64 = 7
	)

	BeforeEach(func() {
		db = openMigratedDB()
		repo = rulePostgres.NewRuleRepository(db)
	})

	AfterEach(func() {
		closeDB(db)
	})

	fromDTO := func(userID *int64, dto rule.CreateRuleDTO) *ruleDatamodel.CategorizationRule {
		return &ruleDatamodel.CategorizationRule{
			UserID:     userID,
			Name:       dto.Name,
			Keywords:   dto.Keywords,
			CategoryID: dto.CategoryID,
			Priority:   dto.Priority,
			IsActive:   true,
		}
	}

	It("stores a rule created without a priority", func() {
		var dto rule.CreateRuleDTO
		Expect(json.Unmarshal([]byte(`{"name":"Rides","keywords":"uber","category_id":1}`), &dto)).To(Succeed())
		Expect(dto.Validate()).To(Succeed())

		data := fromDTO(&uid, dto)
		Expect(repo.Create(data)).To(Succeed())

		got, err := repo.GetByID(data.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Priority).To(Equal(0))
	})

	It("accepts priorities outside any fixed range", func() {
		for _, p := range []int{-3, 0, 11, 100} {
			r := &ruleDatamodel.CategorizationRule{UserID: &uid, Name: fmt.Sprintf("P%d", p), Keywords: "uber", CategoryID: 1, Priority: p, IsActive: true}
			Expect(repo.Create(r)).To(Succeed())
		}
	})

	It("defaults the priority column to zero", func() {
		Expect(db.Exec("INSERT INTO categorization_rules (user_id, name, keywords, category_id) VALUES (?, ?, ?, ?)", uid, "Raw", "uber", 1).Error).To(Succeed())

		got, err := repo.GetByName(&uid, "Raw")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Priority).To(Equal(0))
		Expect(got.IsActive).To(BeTrue())
	})

	It("rejects a duplicate name within one scope", func() {
		Expect(repo.Create(fromDTO(&uid, rule.CreateRuleDTO{Name: "Rides", Keywords: "uber", CategoryID: 1}))).To(Succeed())
		Expect(repo.Create(fromDTO(&uid, rule.CreateRuleDTO{Name: "Rides", Keywords: "lyft", CategoryID: 1}))).NotTo(Succeed())

		Expect(repo.Create(fromDTO(nil, rule.CreateRuleDTO{Name: "Fuel", Keywords: "shell", CategoryID: 1}))).To(Succeed())
		Expect(repo.Create(fromDTO(nil, rule.CreateRuleDTO{Name: "Fuel", Keywords: "bp", CategoryID: 1}))).NotTo(Succeed())
	})

	It("allows the same name once as system and once per user", func() {
		other := int64(8)
		Expect(repo.Create(fromDTO(nil, rule.CreateRuleDTO{Name: "Rides", Keywords: "uber", CategoryID: 1}))).To(Succeed())
		Expect(repo.Create(fromDTO(&uid, rule.CreateRuleDTO{Name: "Rides", Keywords: "uber", CategoryID: 1}))).To(Succeed())
		Expect(repo.Create(fromDTO(&other, rule.CreateRuleDTO{Name: "Rides", Keywords: "uber", CategoryID: 1}))).To(Succeed())

		system, err := repo.ListSystem()
		Expect(err).NotTo(HaveOccurred())
		Expect(system).To(HaveLen(1))
		personal, err := repo.ListPersonal(uid)
		Expect(err).NotTo(HaveOccurred())
		Expect(personal).To(HaveLen(1))
	})

	It("rolls back a whole batch when one row collides", func() {
		batch := []*ruleDatamodel.CategorizationRule{
			fromDTO(&uid, rule.CreateRuleDTO{Name: "A", Keywords: "a", CategoryID: 1}),
			fromDTO(&uid, rule.CreateRuleDTO{Name: "A", Keywords: "b", CategoryID: 1}),
		}
		Expect(repo.CreateBatch(batch)).NotTo(Succeed())

		personal, err := repo.ListPersonal(uid)
		Expect(err).NotTo(HaveOccurred())
		Expect(personal).To(BeEmpty())
	})
})
