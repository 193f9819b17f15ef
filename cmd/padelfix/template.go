package main

const configTemplate = `# Padel Tournament Configuration
# ==============================
# This file describes one tournament for offline fixture generation, or for
# seeding the database with "padelfix db import".

tournament:
  name: "Open Primavera"
  start_date: "2026-11-06"
  end_date: "2026-11-08"

  # Every match takes one slot of this length.
  match_minutes: 50

  # Opening windows per weekday or day type. A specific weekday wins over
  # its day type (weekday = Monday-Friday, weekend = Saturday-Sunday).
  # Days with no entry at all are open all day; an empty list closes a day.
  # Spanish or English names are accepted, with or without accents.
  operating_hours:
    viernes:
      - open: "15:00"
        close: "23:30"
    weekend:
      - open: "09:00"
        close: "13:00"
      - open: "16:00"
        close: "23:30"

# Courts in display order. Inactive courts are ignored.
#
# Reservations block a court at specific times on a date or date range:
#   - date: "2026-11-07"
#     times: ["09:00", "09:50"]
#     reason: "Clase"
#   - start_date: "2026-11-06"
#     end_date: "2026-11-08"
#     times: ["22:40"]
#     reason: "Mantenimiento"
courts:
  - name: Cancha 1
    reservations:
      - date: "2026-11-07"
        times: ["09:00"]
        reason: "Clase de menores"
  - name: Cancha 2
  - name: Cancha 3
    active: false

# Categories and their pairs. A player may enter several categories; the
# scheduler never books them twice at once.
#
# zone_size: target pairs per zone (zones differ by at most one pair)
# zones:     fixed number of zones, overrides zone_size
# balance:   none | rating | time
#            rating spreads strong pairs (serpentine by rating)
#            time groups pairs whose availability overlaps
#
# Pair restrictions list the only windows a pair can play on the listed
# days; days not listed are unrestricted.
categories:
  - name: "4ta Masculino"
    zone_size: 4
    balance: rating
    pairs:
      - players: ["Juan Pérez", "Pablo Sosa"]
        rating: 1320
      - players: ["Luis Gómez", "Diego Ríos"]
        rating: 1280
        restrictions:
          - days: [viernes]
            start: "19:00"
            end: "23:30"
      - players: ["Martín Vega", "Tomás Rey"]
        rating: 1190
      - players: ["Iván Cruz", "Raúl Mar"]
        rating: 1105
  - name: "Mixto B"
    zone_size: 3
    balance: time
    pairs:
      - players: ["Ana Ruiz", "Juan Pérez"]
        restrictions:
          - days: [sabado, domingo]
            start: "09:00"
            end: "13:00"
      - players: ["Nora Paz", "Eva Luna"]
      - players: ["Lía Sol", "Carla Díaz"]
        state: pending

# round_robin is the only strategy; greedy the only assigner.
strategy: round_robin
assigner: greedy

# Rules are hard constraints of the assigner.
rules:
  min_rest_minutes: 0        # Extra minutes between two matches of a player
  max_matches_per_day: 2     # Per pair and date; 0 = no cap
`
