package persona

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"github.com/qamaster/personaqa/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BrazilianNames is the pool synthetic customer names are drawn from.
var BrazilianNames = []string{
	"João Silva", "Maria Santos", "Pedro Oliveira", "Ana Costa",
	"Carlos Pereira", "Fernanda Lima", "Lucas Rodrigues", "Juliana Souza",
	"Rafael Almeida", "Camila Ferreira", "Gustavo Ribeiro", "Larissa Martins",
	"Bruno Carvalho", "Amanda Gomes", "Diego Barbosa", "Patrícia Rocha",
	"Thiago Nascimento", "Vanessa Mendes", "Felipe Araújo", "Mariana Castro",
}

// AreaCodes is the pool of Brazilian DDDs used for synthetic phone numbers.
var AreaCodes = []string{
	"11", "21", "27", "31", "41", "47", "48", "51", "61", "62",
	"71", "81", "82", "83", "84", "85", "86", "87", "88", "91",
}

var emailDomains = []string{"gmail.com", "hotmail.com", "outlook.com", "yahoo.com.br", "uol.com.br"}

// emailProbability is the chance that generated customer data carries an email.
const emailProbability = 0.3

// NewCustomerData generates a synthetic Brazilian customer: a name, a phone
// formatted as (DDD)NNNNN-NNNN and, 30% of the time, an email.
func NewCustomerData(rng *rand.Rand) *models.CustomerData {
	name := BrazilianNames[rng.Intn(len(BrazilianNames))]
	ddd := AreaCodes[rng.Intn(len(AreaCodes))]

	var digits strings.Builder
	for range 9 {
		digits.WriteByte(byte('0' + rng.Intn(10)))
	}
	number := digits.String()

	data := &models.CustomerData{
		Name:  name,
		Phone: fmt.Sprintf("(%s)%s-%s", ddd, number[:5], number[5:]),
	}

	if rng.Float64() < emailProbability {
		data.Email = emailFor(name, emailDomains[rng.Intn(len(emailDomains))])
	}

	return data
}

func emailFor(name, domain string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(fold, name)
	if err != nil {
		ascii = name
	}
	local := strings.ToLower(strings.Join(strings.Fields(ascii), "."))
	return local + "@" + domain
}
