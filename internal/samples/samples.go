// Package samples holds the built-in Spanish example statements.
package samples

// statements are example messages showing common cognitive distortions.
var statements = []string{
	"Nunca podré superar este problema, es demasiado difícil",
	"Si cometo un error en la presentación, será un desastre total",
	"Debería ser capaz de manejar todo sin ayuda",
	"Aunque me felicitaron por mi trabajo, fue solo suerte",
	"Soy un completo fracaso por haber reprobado ese examen",
	"Sé que todos piensan que soy incompetente",
	"Este pequeño error arruinó todo el proyecto",
	"Mi contribución al proyecto fue insignificante",
	"Si acepto este trabajo, seguro que fracasaré",
	"O hago el trabajo perfectamente o mejor no lo hago",
	"Me siento ansioso, así que debe haber un peligro real",
	"Fallé una vez, así que siempre fallaré en situaciones similares",
}

// Statements returns a copy of the example statements in their fixed order.
func Statements() []string {
	out := make([]string, len(statements))
	copy(out, statements)
	return out
}
