package i18n

var ptBR = map[string]string{
	"error.bad_request":             "Requisição inválida",
	"error.unauthorized":            "Não autenticado",
	"error.forbidden":               "Sem permissão para esta ação",
	"error.not_found":               "Recurso não encontrado",
	"error.too_many_requests":       "Muitas tentativas, aguarde %d segundos",
	"error.internal":                "Erro interno, tente novamente",
	"error.tenant_not_found":        "Restaurante não encontrado",
	"error.tenant_required":         "Restaurante não identificado",
	"error.not_authenticated":       "Operador não vinculado a este restaurante",
	"error.invalid_card_format":     "Número de cartão inválido",
	"error.customer_not_found":      "Cliente não encontrado",
	"error.reward_not_found":        "Recompensa não encontrada",
	"error.insufficient_points":     "Pontos insuficientes",
	"error.points_overflow":         "Limite de pontos excedido",
	"error.invalid_amount":          "Valor inválido",
	"error.invalid_staff_id":        "Identificador de operador inválido",
	"error.invalid_reward_type":     "Tipo de recompensa inválido para este restaurante",
	"error.card_capacity_exhausted": "Limite de cartões do restaurante atingido",
	"error.customer_name_invalid":   "Nome deve ter entre 2 e 100 caracteres",
	"error.customer_phone_invalid":  "Telefone deve ter 10 ou 11 dígitos",
	"error.settings_invalid":        "Configurações inválidas",
	"error.ranks_invalid":           "Níveis inválidos",
	"error.reward_config_invalid":   "Configuração de recompensa inválida",
	"error.adjustment_invalid":      "Ajuste de pontos inválido",
	"error.captcha_required":        "Captcha obrigatório",
	"error.captcha_invalid":         "Captcha incorreto",
	"error.slug_taken":              "Identificador já utilizado",
	"error.staff_role_invalid":      "Função de operador inválida",
	"customer.registered":           "Cartão criado com sucesso",
	"customer.already_registered":   "Cliente já cadastrado",
	"sale.registered":               "Venda registrada",
	"redemption.registered":         "Resgate registrado",
}

var enUS = map[string]string{
	"error.bad_request":             "Invalid request",
	"error.unauthorized":            "Not authenticated",
	"error.forbidden":               "Forbidden",
	"error.not_found":               "Resource not found",
	"error.too_many_requests":       "Too many attempts, retry in %d seconds",
	"error.internal":                "Internal error, please retry",
	"error.tenant_not_found":        "Restaurant not found",
	"error.tenant_required":         "Restaurant not resolved",
	"error.not_authenticated":       "Operator is not staff of this restaurant",
	"error.invalid_card_format":     "Invalid card number",
	"error.customer_not_found":      "Customer not found",
	"error.reward_not_found":        "Reward not found",
	"error.insufficient_points":     "Insufficient points",
	"error.points_overflow":         "Points limit exceeded",
	"error.invalid_amount":          "Invalid amount",
	"error.invalid_staff_id":        "Invalid staff id",
	"error.invalid_reward_type":     "Reward type does not match the restaurant program",
	"error.card_capacity_exhausted": "Restaurant card capacity exhausted",
	"error.customer_name_invalid":   "Name must have 2 to 100 characters",
	"error.customer_phone_invalid":  "Phone must have 10 or 11 digits",
	"error.settings_invalid":        "Invalid settings",
	"error.ranks_invalid":           "Invalid ranks",
	"error.reward_config_invalid":   "Invalid reward configuration",
	"error.adjustment_invalid":      "Invalid points adjustment",
	"error.captcha_required":        "Captcha required",
	"error.captcha_invalid":         "Wrong captcha",
	"error.slug_taken":              "Slug already in use",
	"error.staff_role_invalid":      "Invalid staff role",
	"customer.registered":           "Card created",
	"customer.already_registered":   "Customer already registered",
	"sale.registered":               "Sale registered",
	"redemption.registered":         "Redemption registered",
}
