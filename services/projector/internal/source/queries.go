package source

import (
	"github.com/jackc/pgx/v5"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

type entityQuery struct {
	sql     string
	args    func(store.Filter) []any
	collect func(pgx.Rows) ([]models.SourceRow, error)
}

func noArgs(store.Filter) []any { return nil }

func byUser(f store.Filter) []any { return []any{f.UserID} }

func byTable(f store.Filter) []any { return []any{f.TableID} }

func byUserAndTable(f store.Filter) []any { return []any{f.UserID, f.TableID} }

// A zero filter argument disables the corresponding predicate.
var queries = map[models.EntityType]entityQuery{
	models.EntityUser: {
		sql: `
			SELECT u.id_usuario, u.nombre, u.email, u.pais, u.verificacion_kyc, u.fecha_registro,
			       u.saldo_real::float8 AS saldo_real,
			       u.saldo_fichas::float8 AS saldo_fichas,
			       (SELECT COALESCE(SUM(t.monto), 0)::float8 FROM transaccion t
			         WHERE t.id_usuario = u.id_usuario AND t.tipo = 'deposito' AND t.estado = 'completada') AS depositos,
			       (SELECT COALESCE(SUM(t.monto), 0)::float8 FROM transaccion t
			         WHERE t.id_usuario = u.id_usuario AND t.tipo = 'retiro' AND t.estado = 'completada') AS retiros,
			       (SELECT COALESCE(SUM(m.bote_total - COALESCE(m.rake, 0)), 0)::float8 FROM mano m
			         WHERE m.ganador_id = u.id_usuario) AS ganancias_mesas,
			       (SELECT COUNT(DISTINCT um.id_mano) FROM usuario_mano um
			         WHERE um.id_usuario = u.id_usuario) AS manos_jugadas,
			       (SELECT COUNT(*) FROM mano m WHERE m.ganador_id = u.id_usuario) AS manos_ganadas
			FROM usuario u
			WHERE ($1::int8 = 0 OR u.id_usuario = $1)
			ORDER BY u.id_usuario`,
		args:    byUser,
		collect: collectAs[models.User],
	},
	models.EntityTable: {
		sql: `
			SELECT id_mesa, modalidad, tipo, max_jugadores, ciegas, id_torneo
			FROM mesa
			WHERE ($1::int8 = 0 OR id_mesa = $1)
			ORDER BY id_mesa`,
		args:    byTable,
		collect: collectAs[models.Table],
	},
	models.EntityHand: {
		sql: `
			SELECT m.id_mano, m.id_mesa, m.rake::float8 AS rake, m.bote_total::float8 AS bote_total,
			       m.fecha_hora, m.ganador_id, m.modalidad, me.tipo AS tipo_mesa
			FROM mano m
			LEFT JOIN mesa me ON me.id_mesa = m.id_mesa
			WHERE ($1::int8 = 0 OR m.id_mesa = $1)
			ORDER BY m.id_mano`,
		args:    byTable,
		collect: collectAs[models.Hand],
	},
	models.EntityTransaction: {
		sql: `
			SELECT t.id_transaccion, t.id_usuario, u.nombre AS nombre_usuario, mp.tipo AS medio,
			       t.fecha, t.monto::float8 AS monto, t.estado, t.tipo, t.cumplimiento_aml
			FROM transaccion t
			LEFT JOIN usuario u ON u.id_usuario = t.id_usuario
			LEFT JOIN metodo_pago mp ON mp.id_metodo = t.id_metodo
			WHERE ($1::int8 = 0 OR t.id_usuario = $1)
			ORDER BY t.id_transaccion`,
		args:    byUser,
		collect: collectAs[models.Transaction],
	},
	models.EntitySeat: {
		sql: `
			SELECT um.id_usuario, u.nombre, um.id_mesa, me.modalidad, me.tipo
			FROM usuario_mesa um
			JOIN usuario u ON u.id_usuario = um.id_usuario
			JOIN mesa me ON me.id_mesa = um.id_mesa
			WHERE ($1::int8 = 0 OR um.id_usuario = $1)
			  AND ($2::int8 = 0 OR um.id_mesa = $2)
			ORDER BY um.id_usuario, um.id_mesa`,
		args:    byUserAndTable,
		collect: collectAs[models.Seat],
	},
	models.EntityTournament: {
		sql: `
			SELECT id_torneo, nombre, hora_inicio, tipo, modalidad, buy_in::float8 AS buy_in, max_jugadores
			FROM torneo
			ORDER BY id_torneo`,
		args:    noArgs,
		collect: collectAs[models.Tournament],
	},
}

const balanceQuery = `SELECT saldo_real::float8 FROM usuario WHERE id_usuario = $1`
