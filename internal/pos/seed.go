package pos

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SeedProducts is the festival menu the catalog boots with. Order matters:
// the terminals render the menu in exactly this sequence. Ids start above
// 1000 so ad-hoc additions are easy to spot in the ledger.
func SeedProducts() []Product {
	id := int64(1000)
	next := func() int64 { id++; return id }
	lira := func(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
	p := func(name string, price int64, category string) Product {
		return Product{ID: next(), Name: name, Category: category, Price: lira(price)}
	}
	kg := func(name string, price int64, category string) Product {
		return Product{ID: next(), Name: name, Category: category, Price: lira(price), ByWeight: true, UnitPrice: lira(price)}
	}

	return []Product{
		// ET - TAVUK
		p("İSKENDER - 120 GR", 275, "ET - TAVUK"),
		p("ET DÖNER EKMEK ARASI", 150, "ET - TAVUK"),
		p("ET DÖNER PORSİYON", 175, "ET - TAVUK"),
		p("TAVUK DÖNER EKMEK ARASI", 130, "ET - TAVUK"),
		p("TAVUK DÖNER PORSİYON", 150, "ET - TAVUK"),
		p("KÖFTE EKMEK", 130, "ET - TAVUK"),
		p("KÖFTE PORSİYON", 150, "ET - TAVUK"),
		p("KUZU ŞİŞ", 150, "ET - TAVUK"),
		p("ADANA ŞİŞ", 150, "ET - TAVUK"),
		p("PİRZOLA - 4 ADET", 250, "ET - TAVUK"),
		p("TAVUK FAJİTA", 200, "ET - TAVUK"),
		p("TAVUK (PİLİÇ) ÇEVİRME", 250, "ET - TAVUK"),
		kg("ET DÖNER - KG", 1300, "ET - TAVUK"),
		p("ET DÖNER - 500 GR", 650, "ET - TAVUK"),
		kg("TAVUK DÖNER - KG", 800, "ET - TAVUK"),
		p("TAVUK DÖNER - 500 GR", 400, "ET - TAVUK"),
		// ATIŞTIRMALIK
		p("AYVALIK TOSTU", 120, "ATIŞTIRMALIK"),
		p("HAMBURGER", 150, "ATIŞTIRMALIK"),
		p("BALIK BURGER", 150, "ATIŞTIRMALIK"),
		p("PİDE ÇEŞİTLERİ", 120, "ATIŞTIRMALIK"),
		p("PİZZA KARIŞIK (ORTA BOY)", 150, "ATIŞTIRMALIK"),
		p("PİZZA KARIŞIK (BÜYÜK BOY)", 200, "ATIŞTIRMALIK"),
		p("LAHMACUN", 75, "ATIŞTIRMALIK"),
		kg("ÇİĞ KÖFTE KG (MARUL-LİMON)", 300, "ATIŞTIRMALIK"),
		p("YAĞLI GÖZLEME", 50, "ATIŞTIRMALIK"),
		p("İÇLİ GÖZLEME", 60, "ATIŞTIRMALIK"),
		// İÇECEK
		p("OSMANLI ŞERBETİ - 1 LT", 75, "İÇECEK"),
		p("LİMONATA - 1 LT", 75, "İÇECEK"),
		p("AYRAN", 10, "İÇECEK"),
		p("SU", 10, "İÇECEK"),
		p("ÇAY", 10, "İÇECEK"),
		p("SOĞUK ÇAY ÇEŞİTLERİ", 25, "İÇECEK"),
		p("TAMEK MEYVE SUYU", 25, "İÇECEK"),
		p("MEYVELİ MADEN SUYU", 25, "İÇECEK"),
		p("NİĞDE GAZOZU", 25, "İÇECEK"),
		p("ŞALGAM", 25, "İÇECEK"),
		p("SADE MADEN SUYU", 15, "İÇECEK"),
		p("TROPİKAL - ÇİLEK KOKUSU", 75, "İÇECEK"),
		p("TROPİKAL - KAVUNEZYA", 75, "İÇECEK"),
		p("TROPİKAL - NAR-I ŞAHANE", 75, "İÇECEK"),
		// TATLI
		kg("EV BAKLAVASI - KG", 400, "TATLI"),
		p("EV BAKLAVASI - 500 GR", 200, "TATLI"),
		p("EV BAKLAVASI - PORSİYON", 75, "TATLI"),
		p("AŞURE - 500 GRAM", 100, "TATLI"),
		p("HÖŞMERİM - 500 GR", 100, "TATLI"),
		p("WAFFLE", 150, "TATLI"),
		p("DİĞER PASTA ÇEŞİTLERİ", 50, "TATLI"),
		// ÇORBA
		p("KELLE PAÇA ÇORBA", 60, "ÇORBA"),
		p("TARHANA ÇORBA", 50, "ÇORBA"),
	}
}

// SeedTables is the fixed floor layout: 6 pergolas, 16 garden tables and
// three named private tables.
func SeedTables() []Table {
	var out []Table
	n := 1
	add := func(name, typ string) {
		out = append(out, Table{ID: fmt.Sprintf("masa-%d", n), Name: name, Type: typ})
		n++
	}
	for i := 1; i <= 6; i++ {
		add(fmt.Sprintf("KAMELYA %d", i), "kamelya")
	}
	for i := 1; i <= 16; i++ {
		add(fmt.Sprintf("BAHÇE %d", i), "bahce")
	}
	for _, name := range []string{"AHMET EKMEKÇİ", "MEHMET EKMEKÇİ", "SÜLEYMAN EKMEKÇİ"} {
		add(name, "özel")
	}
	return out
}
