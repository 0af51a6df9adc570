package category

// Profile is a label set with the instructions sent to the model for it.
type Profile struct {
	Name     string
	Model    string
	Labels   []string
	Fallback string
	Prompt   string // {categories} and {text} are substituted per call
}

const (
	ProfileBatch       = "batch"
	ProfileInteractive = "interactive"
)

// DefaultProfile returns the built-in profile by name.
func DefaultProfile(name string) Profile {
	switch name {
	case ProfileBatch:
		return batchProfile()
	case ProfileInteractive:
		return interactiveProfile()
	default:
		return interactiveProfile()
	}
}

// DefaultColors returns the colour table used by the chart.
func DefaultColors() map[string]string {
	return map[string]string{
		"Alimentação":                  "#008000",
		"Saúde":                        "#0000FF",
		"Mercado":                      "#FFFF00",
		"Educação":                     "#FFA500",
		"Compras pessoais":             "#FFC0CB",
		"Transporte":                   "#FF0000",
		"Transferência para terceiros": "#800080",
		"Telefone / Internet":          "#A52A2A",
		"Moradia":                      "#808080",
		"Outros":                       "#FFFFFF",
	}
}

func batchProfile() Profile {
	return Profile{
		Name:  ProfileBatch,
		Model: "llama-3.2-90b-text-preview",
		Labels: []string{
			"Alimentação",
			"Saúde",
			"Mercado",
			"Educação",
			"Compras pessoais",
			"Transporte",
			"Transferência para terceiros",
			"Telefone / Internet",
			"Moradia",
		},
		Fallback: "Outros",
		Prompt: `Você é um analista de dados, trabalhando em um projeto de limpeza de dados. Seu trabalho é escolher uma categoria adequada para cada lançamento financeiro que vou te enviar. Todos são transações financeiras de uma pessoa física.
Nunca coloque nenhum tipo de pontuação nas categorias, como vírgulas ',' e pontos '.'

Escolha uma dentre as seguintes categorias:
{categories}

Dicas: Sempre que você julgar que o item parece um nome de pessoa, minha sugestão é que escolha a categoria "Transferência para terceiros"

Escolha a categoria deste item:
{text}

Responda apenas com a categoria.
`,
	}
}

func interactiveProfile() Profile {
	return Profile{
		Name:  ProfileInteractive,
		Model: "llama-3.1-70b-versatile",
		Labels: []string{
			"Alimentação",
			"Saúde",
			"Educação",
			"Lazer",
			"Transporte",
			"Transferência para terceiros",
			"Internet",
			"Moradia",
			"Outros",
		},
		Fallback: "Outros",
		Prompt: `Você é um analista de dados, trabalhando em um projeto de limpeza de dados. Seu trabalho é escolher uma categoria adequada para cada lançamento financeiro que vou te enviar. UTILIZE APENAS AS CATEGORIAS PREDEFINIDAS. JAMAIS DÊ EXPLICAÇÕES. Caso encontre alguma transação e não consiga categorizá-la, escolha "Outros". Quando o item for um nome COMPLETO, escolha "Transferência para terceiros"

Categorias:
{categories}

Escolha uma das categorias acima para este item: {text} (Responda APENAS com a categoria)
`,
	}
}
