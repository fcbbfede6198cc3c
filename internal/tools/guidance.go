package tools

const historyGuidance = `
Use this tool when you need more of the conversation than you were given.
It returns every previous turn between the user and you.
`

const webSearchGuidance = `
Use this tool when answering needs information from the web.
Write your own search query aimed at the most recent information.
It returns up to four passages from the top search results, most relevant first.
`

const visualGuidance = `
This tool takes an image URL and a prompt.
When the user sends an image URL, write a prompt that draws out a detailed answer,
then present the result to the user in a friendly, well-arranged way.
For follow-up questions about an earlier image, call this tool again with that image's URL.
`

const weatherGuidance = `
Look for an area in the current input first, then in the conversation history.
If neither mentions an area, ask the user for one.
The report covers more than the weather; use it for any of these details:
  location:
    name, region, country, lat, lon, tz_id, localtime_epoch, localtime
  current:
    last_updated_epoch, last_updated
    temp_c, temp_f, is_day
    condition: text, icon, code
    wind_mph, wind_kph, wind_degree, wind_dir
    pressure_mb, pressure_in, precip_mm, precip_in
    humidity, cloud
    feelslike_c, feelslike_f, windchill_c, windchill_f
    heatindex_c, heatindex_f, dewpoint_c, dewpoint_f
    vis_km, vis_miles, uv, gust_mph, gust_kph
    air_quality: co, no2, o3, so2, pm2_5, pm10, us-epa-index, gb-defra-index
`
