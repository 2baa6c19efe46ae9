package advisory

// Advisory fragments. Tier and modifier headlines open with a fixed glyph that
// clients may render or strip.
const (
	msgExtremeHeat    = "🔥 Chaleur intense ! Privilégiez des vêtements très légers et amples en tissus naturels."
	msgExtremeHeatHat = "Un chapeau et des lunettes de soleil sont indispensables."
	msgExtremeHeatSun = "N'oubliez pas votre bouteille d'eau et la crème solaire."

	msgHot    = "☀️ Il fait chaud ! Optez pour des vêtements légers comme un t-shirt et un short/une jupe."
	msgHotCap = "Protégez-vous du soleil avec une casquette ou un chapeau."

	msgPleasant        = "😎 Température agréable. Un t-shirt avec un pantalon léger ou une jupe sera parfait."
	msgPleasantEvening = "Prévoyez un petit gilet léger pour la soirée."

	msgMild      = "🙂 Temps doux. Un haut à manches longues avec un pantalon est idéal."
	msgMildLayer = "Vous pouvez ajouter une veste légère ou un pull fin."

	msgCool            = "🍂 Temps frais. Prévoyez plusieurs couches : t-shirt, pull et veste légère."
	msgCoolWindbreaker = "Le vent accentue la sensation de froid, une veste coupe-vent serait utile."

	msgCold    = "❄️ Il fait froid. Portez un pull chaud et une veste épaisse ou un manteau."
	msgColdAcc = "N'oubliez pas écharpe et gants si vous restez longtemps dehors."

	msgVeryCold    = "🥶 Froid important ! Superposez les couches : sous-vêtement thermique, pull épais et manteau d'hiver."
	msgVeryColdAcc = "Écharpe, gants et bonnet sont nécessaires."

	msgFreezing    = "⛄ Températures négatives ! Habillez-vous très chaudement avec plusieurs couches."
	msgFreezingAcc = "Sous-vêtements thermiques, pull en laine, doudoune ou manteau très chaud, écharpe, gants, bonnet et chaussettes épaisses sont indispensables."

	msgRain       = "🌧️ Il pleut ! N'oubliez pas votre parapluie et portez des chaussures imperméables."
	msgRainHooded = "Un imperméable ou une veste avec capuche sera plus pratique qu'un parapluie si le vent est fort."
	msgRainLight  = "Un imperméable léger ou un coupe-vent imperméable sera utile."

	msgSnow       = "❄️ Il neige ! Portez des bottes imperméables et antidérapantes."
	msgSnowCoat   = "Assurez-vous que votre manteau est vraiment chaud et imperméable."
	msgSnowGloves = "Gants imperméables et bonnet sont indispensables."

	msgWind        = "💨 Il y a du vent ! Privilégiez des vêtements coupe-vent."
	msgWindCold    = "Le vent accentue la sensation de froid, habillez-vous plus chaudement que d'habitude."
	msgWindAndRain = "Avec la pluie et le vent, un imperméable sera plus pratique qu'un parapluie."

	msgStorm       = "⚡ Attention aux orages ! Restez à l'abri si possible."
	msgStormHooded = "Un imperméable avec capuche est recommandé si vous devez sortir."

	msgFog     = "🌫️ Il y a du brouillard ! Portez des vêtements visibles ou réfléchissants."
	msgFogCold = "L'humidité du brouillard accentue la sensation de froid, habillez-vous chaudement."

	msgHumid = "💦 L'humidité est élevée ! Privilégiez des vêtements légers et absorbants."
)

// Notices prepended to locally generated advice when the remote advisor
// could not be used.
const (
	NoticeUnreachable = "⚠️ Impossible de contacter l'IA en ligne. Voici une recommandation générée localement :\n\n"
	NoticeBadResponse = "⚠️ Erreur lors du traitement de la réponse de l'IA. Voici une recommandation générée localement :\n\n"
)
